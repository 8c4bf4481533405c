package llm

// ModelType identifies the provider a model belongs to.
type ModelType string

const (
	TypeOpenAI  ModelType = "openAI"
	TypeClaude  ModelType = "claude"
	TypeGemini  ModelType = "gemini"
	TypeGPT4All ModelType = "GPT4All"
)

// Endpoint identifies the endpoint family a model is served from.
type Endpoint string

const (
	EndpointChat      Endpoint = "chat"
	EndpointImages    Endpoint = "images"
	EndpointMessages  Endpoint = "messages"
	EndpointAssistant Endpoint = "assistant"
)

// ModelInfo is the registry record for a model: enough to pick an adapter
// and build a request, nothing more.
type ModelInfo struct {
	// ID is the identifier sent to the provider.
	ID string
	// Name is the human-readable display name.
	Name string

	Type     ModelType
	Endpoint Endpoint
	// URL is the endpoint path (local server) or base URL override. Empty
	// means the provider default.
	URL string
}

const (
	// LocalChatPath is the OpenAI-compatible chat path on the local
	// GPT4All server.
	LocalChatPath = "/v1/chat/completions"

	ClaudeSonnetModel = "claude-3-5-sonnet-20240620"
	ClaudeHaikuModel  = "claude-3-5-haiku-20241022"

	GeminiFlashModel     = "gemini-1.5-flash"
	Gemini2FlashModel    = "gemini-2.0-flash"
	Gemini2FlashLite     = "gemini-2.0-flash-lite"
	Gemini25ProModel     = "gemini-2.5-pro"
	Gemini25FlashModel   = "gemini-2.5-flash"
	Gemini25FlashLite    = "gemini-2.5-flash-lite"
	GeminiFlashLatest    = "gemini-flash-latest"
	GeminiFlashLiteLatst = "gemini-flash-lite-latest"
)

// geminiModels are the model IDs dispatched to the Gemini adapter. Dispatch
// for Gemini is keyed by model family rather than endpoint, because Gemini
// models share the generic chat endpoint record.
var geminiModels = map[string]bool{
	GeminiFlashModel:     true,
	Gemini2FlashModel:    true,
	Gemini2FlashLite:     true,
	Gemini25ProModel:     true,
	Gemini25FlashModel:   true,
	Gemini25FlashLite:    true,
	GeminiFlashLatest:    true,
	GeminiFlashLiteLatst: true,
}

// IsGeminiModel reports whether id belongs to the Gemini model family.
func IsGeminiModel(id string) bool {
	return geminiModels[id]
}

var registry = []ModelInfo{
	{ID: "mistral-7b-openorca.gguf2.Q4_0.gguf", Name: "Mistral OpenOrca", Type: TypeGPT4All, Endpoint: EndpointChat, URL: LocalChatPath},
	{ID: "gpt4all-falcon-newbpe-q4_0.gguf", Name: "GPT4All Falcon", Type: TypeGPT4All, Endpoint: EndpointChat, URL: LocalChatPath},

	{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Type: TypeOpenAI, Endpoint: EndpointChat},
	{ID: "gpt-4o", Name: "GPT-4o", Type: TypeOpenAI, Endpoint: EndpointChat},
	{ID: "gpt-4o-mini", Name: "GPT-4o Mini", Type: TypeOpenAI, Endpoint: EndpointChat},
	{ID: "dall-e-2", Name: "DALL-E 2", Type: TypeOpenAI, Endpoint: EndpointImages},
	{ID: "dall-e-3", Name: "DALL-E 3", Type: TypeOpenAI, Endpoint: EndpointImages},

	{ID: ClaudeSonnetModel, Name: "Claude 3.5 Sonnet", Type: TypeClaude, Endpoint: EndpointMessages},
	{ID: ClaudeHaikuModel, Name: "Claude 3.5 Haiku", Type: TypeClaude, Endpoint: EndpointMessages},

	{ID: GeminiFlashModel, Name: "Gemini 1.5 Flash", Type: TypeGemini, Endpoint: EndpointChat},
	{ID: Gemini2FlashModel, Name: "Gemini 2.0 Flash", Type: TypeGemini, Endpoint: EndpointChat},
	{ID: Gemini25ProModel, Name: "Gemini 2.5 Pro", Type: TypeGemini, Endpoint: EndpointChat},
	{ID: Gemini25FlashModel, Name: "Gemini 2.5 Flash", Type: TypeGemini, Endpoint: EndpointChat},
}

// Resolve looks up a model by ID or display name. It never fails hard: an
// unknown model returns ok=false and callers surface that as a configuration
// error to the user.
func Resolve(model string) (ModelInfo, bool) {
	for _, info := range registry {
		if info.ID == model || info.Name == model {
			return info, true
		}
	}
	return ModelInfo{}, false
}

// Models returns the full registry in declaration order.
func Models() []ModelInfo {
	out := make([]ModelInfo, len(registry))
	copy(out, registry)
	return out
}

// Package config holds the per-view settings, the shared credential set, and
// the persistence port for both.
package config

import (
	"github.com/m-mizutani/goerr/v2"

	"quill/chat"
	"quill/llm"
	"quill/vault"
)

// ViewType identifies one of the three chat surfaces. Each has its own
// independently configured ViewSettings; all three share the credential set.
type ViewType string

const (
	ViewModal  ViewType = "modal"
	ViewWidget ViewType = "widget"
	ViewFAB    ViewType = "floating-action-button"
)

// ChatSettings are the sampling options for chat-family generations.
type ChatSettings struct {
	MaxTokens   int      `json:"maxTokens"`
	Temperature float64  `json:"temperature"`
	TopP        *float64 `json:"topP,omitempty"`
}

// ImageSettings are the options for image generation.
type ImageSettings struct {
	NumberOfImages int    `json:"numberOfImages"`
	ResponseFormat string `json:"responseFormat"`
	Size           string `json:"size"`
	Style          string `json:"style"`
	Quality        string `json:"quality"`
}

// ViewSettings is the configuration snapshot for one view.
type ViewSettings struct {
	Model       string        `json:"model"`
	ModelName   string        `json:"modelName"`
	ModelType   llm.ModelType `json:"modelType"`
	Endpoint    llm.Endpoint  `json:"modelEndpoint"`
	EndpointURL string        `json:"endpointURL"`

	Assistant   bool   `json:"assistant"`
	AssistantID string `json:"assistantId"`

	ChatSettings    ChatSettings          `json:"chatSettings"`
	ImageSettings   ImageSettings         `json:"imageSettings"`
	ContextSettings vault.ContextSettings `json:"contextSettings"`

	// HistoryIndex points into the shared prompt history; -1 means the
	// view holds a new, not-yet-saved conversation.
	HistoryIndex int `json:"historyIndex"`
}

// ApplyModel copies a registry record into the view's model fields.
func (v *ViewSettings) ApplyModel(info llm.ModelInfo) {
	v.Model = info.ID
	v.ModelName = info.Name
	v.ModelType = info.Type
	v.Endpoint = info.Endpoint
	v.EndpointURL = info.URL
}

// Settings is the full persisted configuration blob.
type Settings struct {
	DefaultModel string `json:"defaultModel"`

	ModalSettings  ViewSettings `json:"modalSettings"`
	WidgetSettings ViewSettings `json:"widgetSettings"`
	FABSettings    ViewSettings `json:"fabSettings"`

	OpenAIAPIKey string `json:"openAIAPIKey"`
	ClaudeAPIKey string `json:"claudeAPIKey"`
	GeminiAPIKey string `json:"geminiAPIKey"`

	EnableFileContext bool `json:"enableFileContext"`

	PromptHistory []chat.HistoryItem `json:"promptHistory"`

	// Assistants caches the assistants fetched from the provider so views
	// can offer them without a network round trip.
	Assistants []AssistantRecord `json:"assistants"`
}

// AssistantRecord is the persisted subset of a provider assistant.
type AssistantRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

// DefaultSettings returns the settings used on first run.
func DefaultSettings() *Settings {
	view := ViewSettings{
		ChatSettings: ChatSettings{
			MaxTokens:   300,
			Temperature: 0.65,
		},
		ImageSettings: ImageSettings{
			NumberOfImages: 1,
			ResponseFormat: "url",
			Size:           "1024x1024",
			Style:          "natural",
			Quality:        "standard",
		},
		ContextSettings: vault.ContextSettings{
			MaxContextTokensPercent: 50,
		},
		HistoryIndex: -1,
	}
	if info, ok := llm.Resolve("gpt-4o"); ok {
		view.ApplyModel(info)
	}

	return &Settings{
		DefaultModel:   "gpt-4o",
		ModalSettings:  view,
		WidgetSettings: view,
		FABSettings:    view,
		PromptHistory:  []chat.HistoryItem{},
		Assistants:     []AssistantRecord{},
	}
}

// View resolves the settings record for a view type. Every view type has
// exactly one record.
func (s *Settings) View(viewType ViewType) (*ViewSettings, error) {
	switch viewType {
	case ViewModal:
		return &s.ModalSettings, nil
	case ViewWidget:
		return &s.WidgetSettings, nil
	case ViewFAB:
		return &s.FABSettings, nil
	default:
		return nil, goerr.New("unknown view type", goerr.V("viewType", viewType))
	}
}

// SetDefaultModel resolves model against the registry and applies it to the
// modal and widget views. The floating-action-button view keeps its own
// selection.
func (s *Settings) SetDefaultModel(model string) error {
	info, ok := llm.Resolve(model)
	if !ok {
		return goerr.New("unknown model", goerr.V("model", model))
	}

	s.DefaultModel = info.ID
	s.ModalSettings.ApplyModel(info)
	s.WidgetSettings.ApplyModel(info)
	return nil
}

// SetHistoryIndex points a view at a ledger entry; length 0 resets the view
// to a fresh conversation.
func (s *Settings) SetHistoryIndex(viewType ViewType, length int) error {
	view, err := s.View(viewType)
	if err != nil {
		return err
	}
	if length <= 0 {
		view.HistoryIndex = -1
		return nil
	}
	view.HistoryIndex = length - 1
	return nil
}

// KeyFor returns the stored credential for a provider type. GPT4All needs no
// credential and always returns "".
func (s *Settings) KeyFor(modelType llm.ModelType) string {
	switch modelType {
	case llm.TypeOpenAI:
		return s.OpenAIAPIKey
	case llm.TypeClaude:
		return s.ClaudeAPIKey
	case llm.TypeGemini:
		return s.GeminiAPIKey
	default:
		return ""
	}
}

// HasAnyKey reports whether at least one credential is configured.
func (s *Settings) HasAnyKey() bool {
	return s.OpenAIAPIKey != "" || s.ClaudeAPIKey != "" || s.GeminiAPIKey != ""
}

package engine

import (
	"context"
	"sync"

	"quill/llm"
)

// PreviewSink receives the live preview of an in-flight response. Begin
// opens a fresh preview area, SetText replaces its full contents with the
// accumulated text so far, and Finalize hands over the completed markdown
// for rendering. A sink showing a loading indicator should treat the first
// SetText as the signal to clear it; the engine never tells providers about
// loading state.
type PreviewSink interface {
	Begin()
	SetText(text string)
	Finalize(markdown string)
}

// NopPreview discards all preview updates.
type NopPreview struct{}

func (NopPreview) Begin()          {}
func (NopPreview) SetText(string)  {}
func (NopPreview) Finalize(string) {}

// Notifier surfaces user-facing error notices.
type Notifier interface {
	Notify(message string)
}

// SingletonNotifier forwards each notice to out while guaranteeing that a
// repeat of the currently visible notice is not shown twice in a row.
type SingletonNotifier struct {
	mu      sync.Mutex
	current string
	out     func(string)
}

func NewSingletonNotifier(out func(string)) *SingletonNotifier {
	return &SingletonNotifier{out: out}
}

func (n *SingletonNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if message == n.current {
		return
	}
	n.current = message
	if n.out != nil {
		n.out(message)
	}
}

// Clear forgets the current notice so it may be shown again later.
func (n *SingletonNotifier) Clear() {
	n.mu.Lock()
	n.current = ""
	n.mu.Unlock()
}

// AssistantRunner streams an assistants-API run.
type AssistantRunner interface {
	StreamRun(ctx context.Context, params llm.AssistantParams, chunks chan<- llm.StreamChunk) error
}

// ImageGenerator produces image URLs or payloads for a prompt.
type ImageGenerator interface {
	GenerateImages(ctx context.Context, params llm.ImageParams) ([]string, error)
}

// AdapterFactory builds provider adapters on demand. The engine resolves
// which constructor to call; tests supply fakes.
type AdapterFactory interface {
	Chat(cfg llm.AdapterConfig) llm.ChatStreamer
	Claude(cfg llm.AdapterConfig) llm.ChatStreamer
	Gemini(ctx context.Context, cfg llm.AdapterConfig) (llm.ChatStreamer, error)
	GPT4All(cfg llm.AdapterConfig) llm.ChatStreamer
	Assistants(cfg llm.AdapterConfig) AssistantRunner
	Images(cfg llm.AdapterConfig) ImageGenerator
}

type defaultFactory struct{}

// NewAdapterFactory returns a factory backed by the real provider clients.
func NewAdapterFactory() AdapterFactory { return defaultFactory{} }

func (defaultFactory) Chat(cfg llm.AdapterConfig) llm.ChatStreamer {
	return llm.NewOpenAIAdapter(cfg)
}

func (defaultFactory) Claude(cfg llm.AdapterConfig) llm.ChatStreamer {
	return llm.NewClaudeAdapter(cfg)
}

func (defaultFactory) Gemini(ctx context.Context, cfg llm.AdapterConfig) (llm.ChatStreamer, error) {
	return llm.NewGeminiAdapter(ctx, cfg)
}

func (defaultFactory) GPT4All(cfg llm.AdapterConfig) llm.ChatStreamer {
	return llm.NewGPT4AllAdapter(cfg)
}

func (defaultFactory) Assistants(cfg llm.AdapterConfig) AssistantRunner {
	return llm.NewAssistantsAdapter(cfg)
}

func (defaultFactory) Images(cfg llm.AdapterConfig) ImageGenerator {
	return llm.NewOpenAIAdapter(cfg)
}

package engine

import (
	"context"

	"quill/llm"
)

// CheckKeys validates every provider that has a credential configured and
// reports whether the provider accepted it. Providers without a key are
// skipped; check failures that are not an explicit rejection stay
// indeterminate so a network blip never flags a good key as bad.
func (e *Engine) CheckKeys(ctx context.Context) map[llm.ModelType]llm.KeyStatus {
	statuses := make(map[llm.ModelType]llm.KeyStatus)

	for _, mt := range []llm.ModelType{llm.TypeOpenAI, llm.TypeClaude, llm.TypeGemini} {
		key := e.settings.KeyFor(mt)
		if key == "" {
			continue
		}
		cfg := llm.AdapterConfig{APIKey: key, Timeout: llm.DefaultTimeout}

		var adapter llm.ChatStreamer
		switch mt {
		case llm.TypeOpenAI:
			adapter = e.adapters.Chat(cfg)
		case llm.TypeClaude:
			adapter = e.adapters.Claude(cfg)
		case llm.TypeGemini:
			g, err := e.adapters.Gemini(ctx, cfg)
			if err != nil {
				statuses[mt] = llm.KeyIndeterminate
				continue
			}
			adapter = g
		}

		if checker, ok := adapter.(llm.KeyChecker); ok {
			statuses[mt] = checker.CheckKey(ctx)
		} else {
			statuses[mt] = llm.KeyIndeterminate
		}
	}
	return statuses
}

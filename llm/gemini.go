package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// GeminiAdapter serves the Gemini model family through the Google GenAI SDK.
type GeminiAdapter struct {
	client *genai.Client
	config AdapterConfig
}

// NewGeminiAdapter creates a new Gemini adapter.
func NewGeminiAdapter(ctx context.Context, config AdapterConfig) (*GeminiAdapter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	return &GeminiAdapter{
		client: client,
		config: config,
	}, nil
}

// Provider implements ChatStreamer.
func (g *GeminiAdapter) Provider() string { return "gemini" }

// contents converts normalized messages to Gemini contents. Gemini has no
// assistant role; prior model responses are carried under the "model" role.
func contents(messages []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		var role genai.Role = genai.RoleModel
		if msg.Role == RoleUser {
			role = genai.RoleUser
		}
		out = append(out, genai.NewContentFromText(msg.Content, role))
	}
	return out
}

// StreamChat implements ChatStreamer.
func (g *GeminiAdapter) StreamChat(ctx context.Context, params ChatParams, chunks chan<- StreamChunk) error {
	defer close(chunks)

	config := &genai.GenerateContentConfig{
		CandidateCount:  1,
		MaxOutputTokens: int32(params.Tokens),
		Temperature:     genai.Ptr(float32(params.Temperature)),
	}
	if params.TopP != nil {
		config.TopP = genai.Ptr(float32(*params.TopP))
	}

	for resp, err := range g.client.Models.GenerateContentStream(ctx, params.Model, contents(params.Messages), config) {
		if err != nil {
			err = goerr.Wrap(err, "gemini stream failed", goerr.V("model", params.Model))
			chunks <- StreamChunk{Error: err}
			return err
		}
		if text := resp.Text(); text != "" {
			chunks <- StreamChunk{Content: text}
		}
	}

	chunks <- StreamChunk{Done: true}
	return nil
}

// CheckKey implements KeyChecker with a one-token generation request.
func (g *GeminiAdapter) CheckKey(ctx context.Context) KeyStatus {
	model := g.config.Model
	if model == "" {
		model = GeminiFlashModel
	}

	_, err := g.client.Models.GenerateContent(ctx, model, genai.Text("Reply 'a'"), &genai.GenerateContentConfig{
		CandidateCount:  1,
		MaxOutputTokens: 1,
	})
	if err == nil {
		return KeyValid
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return KeyInvalid
		}
	}
	return KeyIndeterminate
}

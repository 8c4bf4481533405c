package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// GPT4AllBaseURL is the fixed address of the local GPT4All API server.
const GPT4AllBaseURL = "http://localhost:4891"

// GPT4AllAdapter talks to a locally running GPT4All server. The server
// exposes an OpenAI-compatible chat endpoint but does not stream; the single
// response is folded into the normalized chunk sequence.
type GPT4AllAdapter struct {
	client  *http.Client
	config  AdapterConfig
	baseURL string
}

type gpt4allRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type gpt4allResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// NewGPT4AllAdapter creates a new adapter for the local GPT4All server.
func NewGPT4AllAdapter(config AdapterConfig) *GPT4AllAdapter {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = GPT4AllBaseURL
	}

	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &GPT4AllAdapter{
		client:  &http.Client{Timeout: config.Timeout},
		config:  config,
		baseURL: baseURL,
	}
}

// Provider implements ChatStreamer.
func (g *GPT4AllAdapter) Provider() string { return "GPT4All" }

// Send performs the one-shot chat call against the local server. path is the
// chat endpoint path from the model registry.
func (g *GPT4AllAdapter) Send(ctx context.Context, params ChatParams, path string) (*Message, error) {
	if path == "" {
		path = LocalChatPath
	}

	payload, err := json.Marshal(gpt4allRequest{
		Model:       params.Model,
		Messages:    params.Messages,
		MaxTokens:   params.Tokens,
		Temperature: params.Temperature,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal gpt4all request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gpt4all request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "gpt4all server unreachable", goerr.V("url", g.baseURL+path))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, goerr.New("gpt4all returned non-OK status",
			goerr.V("status", resp.StatusCode), goerr.V("body", string(body)))
	}

	var response gpt4allResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, goerr.Wrap(err, "failed to decode gpt4all response")
	}

	if len(response.Choices) == 0 {
		return nil, goerr.New("gpt4all returned no choices")
	}

	msg := response.Choices[0].Message
	return &msg, nil
}

// StreamChat implements ChatStreamer by issuing the one-shot call and
// emitting its content as a single chunk followed by the terminal signal.
func (g *GPT4AllAdapter) StreamChat(ctx context.Context, params ChatParams, chunks chan<- StreamChunk) error {
	defer close(chunks)

	msg, err := g.Send(ctx, params, LocalChatPath)
	if err != nil {
		chunks <- StreamChunk{Error: err}
		return err
	}

	if msg.Content != "" {
		chunks <- StreamChunk{Content: msg.Content}
	}
	chunks <- StreamChunk{Done: true}
	return nil
}

// Healthy reports whether the local server answers at all. No credential is
// involved; this is the local-model equivalent of a key check.
func (g *GPT4AllAdapter) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/models", nil)
	if err != nil {
		return false
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

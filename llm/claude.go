package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const (
	claudeDefaultBaseURL = "https://api.anthropic.com"
	claudeAPIVersion     = "2023-06-01"
)

// ClaudeAdapter serves the messages endpoint over Anthropic's HTTP API with
// server-sent events for streaming.
type ClaudeAdapter struct {
	client  *http.Client
	config  AdapterConfig
	baseURL string
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature,omitempty"`
	Messages    []claudeMessage `json:"messages"`
	Stream      bool            `json:"stream,omitempty"`
}

type claudeStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

// NewClaudeAdapter creates a new Claude adapter.
func NewClaudeAdapter(config AdapterConfig) *ClaudeAdapter {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = claudeDefaultBaseURL
	}

	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &ClaudeAdapter{
		client:  &http.Client{Timeout: config.Timeout},
		config:  config,
		baseURL: baseURL,
	}
}

// Provider implements ChatStreamer.
func (c *ClaudeAdapter) Provider() string { return "claude" }

func (c *ClaudeAdapter) newRequest(ctx context.Context, body claudeRequest) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal claude request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewBuffer(payload))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create claude request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("anthropic-version", claudeAPIVersion)
	return req, nil
}

// StreamChat implements ChatStreamer. The caller is expected to have sliced
// params.Messages down to the single most recent turn; this adapter sends
// whatever it is given.
func (c *ClaudeAdapter) StreamChat(ctx context.Context, params ChatParams, chunks chan<- StreamChunk) error {
	defer close(chunks)

	messages := make([]claudeMessage, len(params.Messages))
	for i, msg := range params.Messages {
		messages[i] = claudeMessage{Role: msg.Role, Content: msg.Content}
	}

	req, err := c.newRequest(ctx, claudeRequest{
		Model:       params.Model,
		MaxTokens:   params.Tokens,
		Temperature: params.Temperature,
		Messages:    messages,
		Stream:      true,
	})
	if err != nil {
		chunks <- StreamChunk{Error: err}
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		err = goerr.Wrap(err, "claude request failed")
		chunks <- StreamChunk{Error: err}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := goerr.New("claude returned non-OK status",
			goerr.V("status", resp.StatusCode), goerr.V("body", string(body)))
		chunks <- StreamChunk{Error: err}
		return err
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		var event claudeStreamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			// Skip malformed events and continue.
			continue
		}

		switch event.Type {
		case "content_block_delta":
			if event.Delta.Type == "text_delta" && event.Delta.Text != "" {
				chunks <- StreamChunk{Content: event.Delta.Text}
			}
		case "message_stop":
			chunks <- StreamChunk{Done: true}
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		err = goerr.Wrap(err, "error reading claude stream")
		chunks <- StreamChunk{Error: err}
		return err
	}

	// EOF before message_stop means the reply is incomplete; it must not be
	// committed as a clean completion.
	err = goerr.New("claude stream ended without message_stop")
	chunks <- StreamChunk{Error: err}
	return err
}

// CheckKey implements KeyChecker with a one-token completion request.
func (c *ClaudeAdapter) CheckKey(ctx context.Context) KeyStatus {
	model := c.config.Model
	if model == "" {
		model = ClaudeSonnetModel
	}

	req, err := c.newRequest(ctx, claudeRequest{
		Model:     model,
		MaxTokens: 1,
		Messages:  []claudeMessage{{Role: RoleUser, Content: "Reply 'a'"}},
	})
	if err != nil {
		return KeyIndeterminate
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return KeyIndeterminate
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusTooManyRequests:
		// Rate limiting still proves the credential was accepted.
		return KeyValid
	case http.StatusUnauthorized, http.StatusForbidden:
		return KeyInvalid
	default:
		return KeyIndeterminate
	}
}

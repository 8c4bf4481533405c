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
	openai "github.com/sashabaranov/go-openai"
)

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// AssistantsAdapter serves the OpenAI assistants endpoint. Assistant and
// thread management go through the SDK; the streaming run uses the HTTP SSE
// transport directly, since the run stream is not covered by the SDK.
type AssistantsAdapter struct {
	client  *openai.Client
	http    *http.Client
	config  AdapterConfig
	baseURL string
}

type assistantDeltaEvent struct {
	Delta struct {
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"delta"`
}

// NewAssistantsAdapter creates a new assistants adapter.
func NewAssistantsAdapter(config AdapterConfig) *AssistantsAdapter {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}

	client := openai.NewClient(config.APIKey)
	if config.BaseURL != "" {
		clientConfig := openai.DefaultConfig(config.APIKey)
		clientConfig.BaseURL = config.BaseURL
		client = openai.NewClientWithConfig(clientConfig)
	}

	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &AssistantsAdapter{
		client:  client,
		http:    &http.Client{Timeout: config.Timeout},
		config:  config,
		baseURL: baseURL,
	}
}

// Provider identifies the adapter in logs and notices.
func (a *AssistantsAdapter) Provider() string { return "assistant" }

// ListAssistants returns the assistants registered under the account.
func (a *AssistantsAdapter) ListAssistants(ctx context.Context) ([]openai.Assistant, error) {
	resp, err := a.client.ListAssistants(ctx, nil, nil, nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list assistants")
	}
	return resp.Assistants, nil
}

// CreateAssistant registers a new assistant.
func (a *AssistantsAdapter) CreateAssistant(ctx context.Context, req openai.AssistantRequest) (openai.Assistant, error) {
	assistant, err := a.client.CreateAssistant(ctx, req)
	if err != nil {
		return openai.Assistant{}, goerr.Wrap(err, "failed to create assistant")
	}
	return assistant, nil
}

// DeleteAssistant removes an assistant by ID.
func (a *AssistantsAdapter) DeleteAssistant(ctx context.Context, assistantID string) error {
	if _, err := a.client.DeleteAssistant(ctx, assistantID); err != nil {
		return goerr.Wrap(err, "failed to delete assistant", goerr.V("assistant_id", assistantID))
	}
	return nil
}

// StreamRun creates a thread seeded with the conversation so far and streams
// an assistant run on it into the normalized chunk sequence.
func (a *AssistantsAdapter) StreamRun(ctx context.Context, params AssistantParams, chunks chan<- StreamChunk) error {
	defer close(chunks)

	threadMessages := make([]openai.ThreadMessage, 0, len(params.Messages))
	for _, msg := range params.Messages {
		role := openai.ThreadMessageRoleUser
		if msg.Role == RoleAssistant {
			role = openai.ThreadMessageRoleAssistant
		}
		threadMessages = append(threadMessages, openai.ThreadMessage{
			Role:    role,
			Content: msg.Content,
		})
	}

	thread, err := a.client.CreateThread(ctx, openai.ThreadRequest{Messages: threadMessages})
	if err != nil {
		err = goerr.Wrap(err, "failed to create thread")
		chunks <- StreamChunk{Error: err}
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"assistant_id": params.AssistantID,
		"stream":       true,
	})
	if err != nil {
		err = goerr.Wrap(err, "failed to marshal run request")
		chunks <- StreamChunk{Error: err}
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/threads/"+thread.ID+"/runs", bytes.NewBuffer(payload))
	if err != nil {
		err = goerr.Wrap(err, "failed to create run request")
		chunks <- StreamChunk{Error: err}
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := a.http.Do(req)
	if err != nil {
		err = goerr.Wrap(err, "assistants run request failed")
		chunks <- StreamChunk{Error: err}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := goerr.New("assistants run returned non-OK status",
			goerr.V("status", resp.StatusCode), goerr.V("body", string(body)))
		chunks <- StreamChunk{Error: err}
		return err
	}

	var eventName string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			eventName = strings.TrimPrefix(line, "event: ")
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			chunks <- StreamChunk{Done: true}
			return nil
		}

		switch eventName {
		case "thread.message.delta":
			var event assistantDeltaEvent
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				continue
			}
			for _, part := range event.Delta.Content {
				if part.Type != "text" || part.Text.Value == "" {
					continue
				}
				// File-search citation markers are noise in rendered text.
				if strings.Contains(part.Text.Value, "【") {
					continue
				}
				chunks <- StreamChunk{Content: part.Text.Value}
			}
		case "thread.run.completed":
			chunks <- StreamChunk{Done: true}
			return nil
		case "thread.run.failed":
			err := goerr.New("assistants run failed", goerr.V("data", data))
			chunks <- StreamChunk{Error: err}
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		err = goerr.Wrap(err, "error reading assistants stream")
		chunks <- StreamChunk{Error: err}
		return err
	}

	// EOF before a terminal run event means the reply is incomplete; it must
	// not be committed as a clean completion.
	err = goerr.New("assistants stream ended without a terminal event")
	chunks <- StreamChunk{Error: err}
	return err
}

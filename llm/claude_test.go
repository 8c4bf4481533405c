package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claudeSSEServer(t *testing.T, events []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("x-api-key"))
		require.Equal(t, claudeAPIVersion, r.Header.Get("anthropic-version"))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, event := range events {
			fmt.Fprintf(w, "data: %s\n\n", event)
		}
	}))
}

func TestClaudeStreamChat(t *testing.T) {
	server := claudeSSEServer(t, []string{
		`{"type":"message_start"}`,
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"Hello"}}`,
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":" world"}}`,
		`not json at all`,
		`{"type":"message_stop"}`,
	})
	defer server.Close()

	adapter := NewClaudeAdapter(AdapterConfig{APIKey: "test-key", BaseURL: server.URL})
	chunks := make(chan StreamChunk)
	go adapter.StreamChat(context.Background(), ChatParams{
		Model:    ClaudeSonnetModel,
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Tokens:   300,
	}, chunks)

	var content string
	var done bool
	for chunk := range chunks {
		require.NoError(t, chunk.Error)
		if chunk.Done {
			done = true
			continue
		}
		content += chunk.Content
	}
	assert.Equal(t, "Hello world", content)
	assert.True(t, done)
}

func TestClaudeStreamChatSendsGivenMessages(t *testing.T) {
	var got claudeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
	}))
	defer server.Close()

	adapter := NewClaudeAdapter(AdapterConfig{APIKey: "k", BaseURL: server.URL})
	chunks := make(chan StreamChunk)
	go adapter.StreamChat(context.Background(), ChatParams{
		Model:    ClaudeSonnetModel,
		Messages: []Message{{Role: RoleUser, Content: "only turn"}},
		Tokens:   128,
	}, chunks)
	for range chunks {
	}

	assert.True(t, got.Stream)
	assert.Equal(t, 128, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "only turn", got.Messages[0].Content)
}

func TestClaudeStreamChatTruncatedStream(t *testing.T) {
	// The server drops the connection after one delta, never sending
	// message_stop.
	server := claudeSSEServer(t, []string{
		`{"type":"message_start"}`,
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"partial"}}`,
	})
	defer server.Close()

	adapter := NewClaudeAdapter(AdapterConfig{APIKey: "k", BaseURL: server.URL})
	chunks := make(chan StreamChunk, 8)
	err := adapter.StreamChat(context.Background(), ChatParams{
		Model:    ClaudeSonnetModel,
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, chunks)
	require.Error(t, err)

	var sawError, sawDone bool
	for chunk := range chunks {
		if chunk.Error != nil {
			sawError = true
		}
		if chunk.Done {
			sawDone = true
		}
	}
	assert.True(t, sawError, "a truncated stream must surface as an error")
	assert.False(t, sawDone, "a truncated stream must not look like a clean completion")
}

func TestClaudeStreamChatHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"overloaded_error"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	adapter := NewClaudeAdapter(AdapterConfig{APIKey: "k", BaseURL: server.URL})
	chunks := make(chan StreamChunk, 4)
	err := adapter.StreamChat(context.Background(), ChatParams{Model: ClaudeSonnetModel}, chunks)
	require.Error(t, err)

	chunk, ok := <-chunks
	require.True(t, ok)
	assert.Error(t, chunk.Error)
}

func TestClaudeCheckKey(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   KeyStatus
	}{
		{"accepted", http.StatusOK, KeyValid},
		{"rate limited still proves the key", http.StatusTooManyRequests, KeyValid},
		{"unauthorized", http.StatusUnauthorized, KeyInvalid},
		{"forbidden", http.StatusForbidden, KeyInvalid},
		{"server error stays indeterminate", http.StatusInternalServerError, KeyIndeterminate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			adapter := NewClaudeAdapter(AdapterConfig{APIKey: "k", BaseURL: server.URL})
			assert.Equal(t, tt.want, adapter.CheckKey(context.Background()))
		})
	}
}

func TestClaudeCheckKeyUnreachable(t *testing.T) {
	adapter := NewClaudeAdapter(AdapterConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	assert.Equal(t, KeyIndeterminate, adapter.CheckKey(context.Background()))
}

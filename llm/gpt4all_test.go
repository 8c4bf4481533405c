package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPT4AllSend(t *testing.T) {
	var got gpt4allRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, LocalChatPath, r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Hi there"}},
			},
		})
	}))
	defer server.Close()

	adapter := NewGPT4AllAdapter(AdapterConfig{BaseURL: server.URL})
	msg, err := adapter.Send(context.Background(), ChatParams{
		Model:       "mistral-7b-openorca.gguf2.Q4_0.gguf",
		Messages:    []Message{{Role: RoleUser, Content: "Hello"}},
		Tokens:      300,
		Temperature: 0.65,
	}, "")

	require.NoError(t, err)
	assert.Equal(t, "Hi there", msg.Content)
	assert.Equal(t, RoleAssistant, msg.Role)

	assert.Equal(t, "mistral-7b-openorca.gguf2.Q4_0.gguf", got.Model)
	assert.Equal(t, 300, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "Hello", got.Messages[0].Content)
}

func TestGPT4AllSendErrors(t *testing.T) {
	t.Run("server down", func(t *testing.T) {
		adapter := NewGPT4AllAdapter(AdapterConfig{BaseURL: "http://127.0.0.1:1"})
		_, err := adapter.Send(context.Background(), ChatParams{}, "")
		assert.Error(t, err)
	})

	t.Run("non-OK status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}))
		defer server.Close()

		adapter := NewGPT4AllAdapter(AdapterConfig{BaseURL: server.URL})
		_, err := adapter.Send(context.Background(), ChatParams{}, "")
		assert.Error(t, err)
	})

	t.Run("empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()

		adapter := NewGPT4AllAdapter(AdapterConfig{BaseURL: server.URL})
		_, err := adapter.Send(context.Background(), ChatParams{}, "")
		assert.Error(t, err)
	})
}

func TestGPT4AllStreamChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"one-shot reply"}}]}`))
	}))
	defer server.Close()

	adapter := NewGPT4AllAdapter(AdapterConfig{BaseURL: server.URL})
	chunks := make(chan StreamChunk)
	go adapter.StreamChat(context.Background(), ChatParams{}, chunks)

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
	assert.Equal(t, "one-shot reply", content)
	assert.True(t, done, "stream must end with the terminal chunk")
}

func TestGPT4AllHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/models" {
			w.Write([]byte(`{"data":[]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	up := NewGPT4AllAdapter(AdapterConfig{BaseURL: server.URL})
	assert.True(t, up.Healthy(context.Background()))

	down := NewGPT4AllAdapter(AdapterConfig{BaseURL: "http://127.0.0.1:1"})
	assert.False(t, down.Healthy(context.Background()))
}

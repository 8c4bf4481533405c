package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill/llm"
)

func TestMessageStoreAddAndPop(t *testing.T) {
	s := NewMessageStore()
	assert.Equal(t, 0, s.Len())

	s.Add(llm.Message{Role: llm.RoleUser, Content: "hi"})
	s.Add(llm.Message{Role: llm.RoleAssistant, Content: "hello"})
	require.Equal(t, 2, s.Len())

	msg, ok := s.PopLast()
	require.True(t, ok)
	assert.Equal(t, llm.RoleAssistant, msg.Role)
	assert.Equal(t, 1, s.Len())

	_, ok = s.PopLast()
	require.True(t, ok)
	_, ok = s.PopLast()
	assert.False(t, ok, "popping an empty store reports ok=false")
}

func TestMessageStoreSnapshotIsolation(t *testing.T) {
	s := NewMessageStore()
	s.Add(llm.Message{Role: llm.RoleUser, Content: "original"})

	snapshot := s.Messages()
	snapshot[0].Content = "mutated"

	assert.Equal(t, "original", s.Messages()[0].Content)
}

func TestMessageStoreSubscribers(t *testing.T) {
	s := NewMessageStore()

	var calls [][]llm.Message
	s.Subscribe(func(msgs []llm.Message) {
		calls = append(calls, msgs)
	})

	s.Add(llm.Message{Role: llm.RoleUser, Content: "one"})
	s.Set([]llm.Message{{Role: llm.RoleUser, Content: "a"}, {Role: llm.RoleAssistant, Content: "b"}})
	s.Reset()

	require.Len(t, calls, 3)
	assert.Len(t, calls[0], 1)
	assert.Len(t, calls[1], 2)
	assert.Len(t, calls[2], 0)
}

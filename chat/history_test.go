package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill/llm"
)

func TestHistoryPushAssignsIdentity(t *testing.T) {
	h := NewHistory(nil, nil)

	length := h.Push(HistoryItem{Prompt: "first"})
	assert.Equal(t, 1, length)

	item, err := h.At(0)
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.False(t, item.CreatedAt.IsZero())
	assert.Equal(t, "first", item.Prompt)
}

func TestHistoryOverwriteReplacesOnlyMessages(t *testing.T) {
	h := NewHistory(nil, nil)
	h.Push(HistoryItem{
		Prompt:   "question",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "question"}},
	})

	replacement := []llm.Message{
		{Role: llm.RoleUser, Content: "question"},
		{Role: llm.RoleAssistant, Content: "better answer"},
	}
	require.NoError(t, h.Overwrite(replacement, 0))

	item, err := h.At(0)
	require.NoError(t, err)
	assert.Equal(t, "question", item.Prompt, "identity fields survive an overwrite")
	require.Len(t, item.Messages, 2)
	assert.Equal(t, "better answer", item.Messages[1].Content)
	assert.Equal(t, 1, h.Len(), "overwrite never grows the ledger")
}

func TestHistoryIndexBounds(t *testing.T) {
	h := NewHistory(nil, nil)
	h.Push(HistoryItem{})

	assert.Error(t, h.Overwrite(nil, -1))
	assert.Error(t, h.Overwrite(nil, 1))
	require.NoError(t, h.Overwrite(nil, 0))

	_, err := h.At(5)
	assert.Error(t, err)
}

func TestHistoryPersistsOnEveryMutation(t *testing.T) {
	var saved [][]HistoryItem
	h := NewHistory(nil, func(items []HistoryItem) {
		saved = append(saved, items)
	})

	h.Push(HistoryItem{Prompt: "a"})
	h.Overwrite([]llm.Message{{Role: llm.RoleUser, Content: "a"}}, 0)
	h.Reset()

	require.Len(t, saved, 3)
	assert.Len(t, saved[0], 1)
	assert.Len(t, saved[2], 0)
}

func TestHistoryLoadsExistingItems(t *testing.T) {
	existing := []HistoryItem{{ID: "x", Prompt: "old"}}
	h := NewHistory(existing, nil)

	assert.Equal(t, 1, h.Len())
	item, err := h.At(0)
	require.NoError(t, err)
	assert.Equal(t, "old", item.Prompt)
}

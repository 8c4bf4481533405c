package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"quill/llm"
	"quill/vault"
)

// HistoryItem captures one completed exchange: the parameter set that
// produced it, the resulting message sequence, and optionally the vault
// context that was injected. Kind tags which endpoint family produced it.
type HistoryItem struct {
	ID        string       `json:"id"`
	Kind      llm.Endpoint `json:"kind"`
	ModelName string       `json:"modelName"`
	Model     string       `json:"model"`
	Prompt    string       `json:"prompt"`

	Messages []llm.Message `json:"messages"`

	// Chat-family fields.
	Temperature float64  `json:"temperature,omitempty"`
	Tokens      int      `json:"tokens,omitempty"`
	TopP        *float64 `json:"topP,omitempty"`

	// Assistant-family field.
	AssistantID string `json:"assistantId,omitempty"`

	// Image-family fields.
	ImageSize      string `json:"imageSize,omitempty"`
	ImageStyle     string `json:"imageStyle,omitempty"`
	ImageQuality   string `json:"imageQuality,omitempty"`
	NumberOfImages int    `json:"numberOfImages,omitempty"`

	VaultContext *vault.Context `json:"vaultContext,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// History is the append-only-by-index ledger of completed exchanges shared
// by all views. Indices are stable for the lifetime of the ledger: items are
// never removed individually, only overwritten in place or wiped wholesale.
// Mutations are serialized internally; views generating concurrently never
// corrupt the ledger, though regenerating the same index from two views at
// once remains a caller error.
type History struct {
	mu    sync.Mutex
	items []HistoryItem
	save  func([]HistoryItem)
}

// NewHistory creates a ledger over an existing item slice (loaded from the
// settings store). save is invoked with a snapshot after every mutation;
// pass nil for no persistence.
func NewHistory(items []HistoryItem, save func([]HistoryItem)) *History {
	return &History{items: items, save: save}
}

// Push appends a completed exchange and returns the new ledger length.
func (h *History) Push(item HistoryItem) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	h.items = append(h.items, item)
	h.persist()
	return len(h.items)
}

// Overwrite replaces only the message sequence of the item at index. Used by
// the regenerate path so the exchange keeps its identity and position.
func (h *History) Overwrite(messages []llm.Message, index int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if index < 0 || index >= len(h.items) {
		return goerr.New("history index out of range",
			goerr.V("index", index), goerr.V("len", len(h.items)))
	}
	h.items[index].Messages = append([]llm.Message(nil), messages...)
	h.persist()
	return nil
}

// Update has the same effect as Overwrite; it is the mid-regenerate write
// that lands after the trailing assistant message has been popped but before
// the new generation completes.
func (h *History) Update(index int, messages []llm.Message) error {
	return h.Overwrite(messages, index)
}

// Reset wipes the ledger.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = h.items[:0]
	h.persist()
}

// Len returns the number of recorded exchanges.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items)
}

// At returns the item at index.
func (h *History) At(index int) (HistoryItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if index < 0 || index >= len(h.items) {
		return HistoryItem{}, goerr.New("history index out of range",
			goerr.V("index", index), goerr.V("len", len(h.items)))
	}
	return h.items[index], nil
}

// Items returns the ledger contents in order.
func (h *History) Items() []HistoryItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot()
}

func (h *History) snapshot() []HistoryItem {
	out := make([]HistoryItem, len(h.items))
	copy(out, h.items)
	return out
}

// persist runs with the lock held.
func (h *History) persist() {
	if h.save != nil {
		h.save(h.snapshot())
	}
}

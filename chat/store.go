// Package chat holds the live message sequence for a view and the durable
// ledger of completed exchanges.
package chat

import "quill/llm"

// MessageStore owns the live message sequence for one view during a
// generation. Subscribers are notified synchronously after every change, in
// registration order.
type MessageStore struct {
	messages    []llm.Message
	subscribers []func([]llm.Message)
}

// NewMessageStore creates an empty store.
func NewMessageStore() *MessageStore {
	return &MessageStore{messages: []llm.Message{}}
}

// Subscribe registers a callback invoked after every mutation.
func (s *MessageStore) Subscribe(fn func([]llm.Message)) {
	s.subscribers = append(s.subscribers, fn)
}

// Messages returns a copy of the current sequence.
func (s *MessageStore) Messages() []llm.Message {
	out := make([]llm.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *MessageStore) Len() int {
	return len(s.messages)
}

// Add appends a message.
func (s *MessageStore) Add(msg llm.Message) {
	s.messages = append(s.messages, msg)
	s.notify()
}

// Set replaces the whole sequence.
func (s *MessageStore) Set(messages []llm.Message) {
	s.messages = make([]llm.Message, len(messages))
	copy(s.messages, messages)
	s.notify()
}

// PopLast removes and returns the trailing message. ok is false when the
// store is empty.
func (s *MessageStore) PopLast() (msg llm.Message, ok bool) {
	if len(s.messages) == 0 {
		return llm.Message{}, false
	}
	msg = s.messages[len(s.messages)-1]
	s.messages = s.messages[:len(s.messages)-1]
	s.notify()
	return msg, true
}

// Reset clears the sequence.
func (s *MessageStore) Reset() {
	s.messages = s.messages[:0]
	s.notify()
}

func (s *MessageStore) notify() {
	snapshot := s.Messages()
	for _, fn := range s.subscribers {
		fn(snapshot)
	}
}

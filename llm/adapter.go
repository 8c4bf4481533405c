package llm

import (
	"context"
	"time"
)

// Message roles as they appear on the wire for every provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamChunk represents a chunk of streaming response. Every provider
// transport (SDK chunk iterator, SSE event stream, local one-shot HTTP) is
// translated into a sequence of these, so the engine only ever consumes one
// stream shape.
type StreamChunk struct {
	Content string
	Error   error
	Done    bool
}

// ChatParams contains the normalized request parameters for a chat call.
type ChatParams struct {
	Prompt      string
	Messages    []Message
	Model       string
	Tokens      int
	Temperature float64
	TopP        *float64
}

// ImageParams contains the normalized request parameters for image generation.
type ImageParams struct {
	Prompt         string
	Model          string
	NumberOfImages int
	Size           string
	Style          string
	Quality        string
	ResponseFormat string
}

// AssistantParams contains the normalized request parameters for an
// assistants-endpoint run.
type AssistantParams struct {
	Prompt      string
	Messages    []Message
	Model       string
	AssistantID string
}

// KeyStatus is the result of a credential check.
type KeyStatus int

const (
	// KeyIndeterminate means the check failed for a reason other than
	// authorization (network, rate limit). The key must not be treated as
	// invalid in this case.
	KeyIndeterminate KeyStatus = iota
	KeyValid
	KeyInvalid
)

func (s KeyStatus) String() string {
	switch s {
	case KeyValid:
		return "valid"
	case KeyInvalid:
		return "invalid"
	default:
		return "indeterminate"
	}
}

// ChatStreamer is implemented by every provider adapter that can stream a
// chat completion. StreamChat closes chunks when the stream ends, and sends
// exactly one terminal chunk (Done or Error) before doing so. Adapters do not
// retry; a failed call propagates its error verbatim.
type ChatStreamer interface {
	StreamChat(ctx context.Context, params ChatParams, chunks chan<- StreamChunk) error
	Provider() string
}

// KeyChecker is implemented by adapters whose provider requires a credential.
// CheckKey performs a minimal, low-cost call and classifies the outcome.
type KeyChecker interface {
	CheckKey(ctx context.Context) KeyStatus
}

// AdapterConfig contains common configuration for provider adapters.
type AdapterConfig struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// DefaultTimeout for provider requests.
const DefaultTimeout = 120 * time.Second

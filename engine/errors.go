package engine

import (
	"github.com/m-mizutani/goerr/v2"
)

// Error categories. Configuration and credential failures abort before any
// network call; transport failures abort mid-flight and trigger the
// trailing-turn rollback.
var (
	TagConfiguration = goerr.NewTag("configuration")
	TagCredential    = goerr.NewTag("credential")
	TagTransport     = goerr.NewTag("transport")
)

// ErrBusy is returned when a generation is requested on a view that already
// has one in flight. Concurrent generations per view are rejected rather
// than left undefined.
var ErrBusy = goerr.New("generation already in progress for this view")

// noticeFor maps an error to the single user-visible message shown through
// the notifier. Detail stays in the logs.
func noticeFor(err error) string {
	switch {
	case goerr.HasTag(err, TagConfiguration):
		return "Chat is not configured: " + err.Error()
	case goerr.HasTag(err, TagCredential):
		return "The API key was rejected by the provider."
	default:
		return "Generation failed. See the log for details."
	}
}

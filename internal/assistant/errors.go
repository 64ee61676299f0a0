package assistant

import (
	"errors"
	"strings"

	"github.com/fentz26/neona-assist/internal/orchestrator"
)

// Sentinel errors for assistant operations.
var (
	ErrNoActiveProject         = errors.New("no active project")
	ErrEmptyUtterance          = errors.New("empty utterance")
	ErrInterpretFailed         = errors.New("interpretation failed")
	ErrExecuteFailed           = errors.New("execution failed")
	ErrNoIntentResult          = errors.New("no intent result to attach an action to")
	ErrUnknownSuggestionAction = errors.New("unknown suggestion action")
	ErrEmptySuggestionID       = errors.New("empty suggestion id")

	// errNoResult stands in for a client that returned neither a result nor
	// an error.
	errNoResult = errors.New("orchestrator returned no result")
)

// User-facing messages surfaced through State.Error.
const (
	MsgNoActiveProject  = "Select a project to use the assistant"
	MsgInterpretFailed  = "Failed to process request"
	MsgExecuteFailed    = "Failed to execute action"
	MsgSuggestionsFetch = "Failed to fetch suggestions"
)

// errorMessage derives a human-readable message from err, falling back when
// there is nothing usable.
func errorMessage(err error, fallback string) string {
	if err == nil || errors.Is(err, errNoResult) {
		return fallback
	}
	var apiErr *orchestrator.APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}

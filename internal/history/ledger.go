// Package history keeps the bounded, most-recent-first ledgers of prior
// utterances and action results.
package history

import (
	"strings"

	"github.com/fentz26/neona-assist/internal/models"
)

const (
	// MaxUtterances caps the utterance history.
	MaxUtterances = 10
	// MaxActions caps the action-result history.
	MaxActions = 20
)

// Ledger holds both histories. The zero value is ready to use.
type Ledger struct {
	Utterances []string
	Actions    []models.ActionResult
}

// AddUtterance records text at the front of the utterance history.
// It reports whether the history changed.
func (l *Ledger) AddUtterance(text string) bool {
	next, ok := PushUtterance(l.Utterances, text)
	if ok {
		l.Utterances = next
	}
	return ok
}

// AddAction records an action result at the front of the action history.
func (l *Ledger) AddAction(result models.ActionResult) {
	l.Actions = PushAction(l.Actions, result)
}

// Clear empties both histories.
func (l *Ledger) Clear() {
	l.Utterances = []string{}
	l.Actions = []models.ActionResult{}
}

// PushUtterance returns list with text prepended and truncated to MaxUtterances.
// Blank text and a repeat of the current head are rejected (ok == false, list returned as is).
// The input slice is never modified.
func PushUtterance(list []string, text string) ([]string, bool) {
	if strings.TrimSpace(text) == "" {
		return list, false
	}
	if len(list) > 0 && list[0] == text {
		return list, false
	}
	n := len(list) + 1
	if n > MaxUtterances {
		n = MaxUtterances
	}
	out := make([]string, 0, n)
	out = append(out, text)
	out = append(out, list[:n-1]...)
	return out, true
}

// PushAction returns list with result prepended and truncated to MaxActions.
// The input slice is never modified.
func PushAction(list []models.ActionResult, result models.ActionResult) []models.ActionResult {
	n := len(list) + 1
	if n > MaxActions {
		n = MaxActions
	}
	out := make([]models.ActionResult, 0, n)
	out = append(out, result)
	out = append(out, list[:n-1]...)
	return out
}

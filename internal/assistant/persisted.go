package assistant

import (
	"time"

	"github.com/fentz26/neona-assist/internal/history"
	"github.com/fentz26/neona-assist/internal/store"
	"github.com/fentz26/neona-assist/internal/suggestions"
)

const (
	// StorageKey is the durable key of the persisted subset.
	StorageKey = "ai-assistant-storage"

	persistVersion = 1
)

// persistedState is the only part of the state that survives a restart.
type persistedState struct {
	UtteranceHistory       []string   `json:"utteranceHistory"`
	DismissedSuggestions   []string   `json:"dismissedSuggestions"`
	SuggestionsLastFetched *time.Time `json:"suggestionsLastFetched,omitempty"`

	dismissed suggestions.DismissedSet
}

func newPersister(s store.Storage) *store.Persister[persistedState] {
	return &store.Persister[persistedState]{
		Storage:   s,
		Key:       StorageKey,
		Version:   persistVersion,
		Rehydrate: rehydrate,
	}
}

// rehydrate rebuilds the dismissed set from its stored list. It runs after
// every load, including first run when nothing was stored.
func rehydrate(ps *persistedState, _ int) {
	ps.dismissed = suggestions.FromList(ps.DismissedSuggestions)
	ps.DismissedSuggestions = ps.dismissed.Sorted()

	if ps.UtteranceHistory == nil {
		ps.UtteranceHistory = []string{}
	}
	if len(ps.UtteranceHistory) > history.MaxUtterances {
		ps.UtteranceHistory = ps.UtteranceHistory[:history.MaxUtterances]
	}
}

// partialize selects the persisted subset of c.
func partialize(c *core) persistedState {
	ps := persistedState{
		UtteranceHistory:     append([]string{}, c.ledger.Utterances...),
		DismissedSuggestions: c.dismissed.Sorted(),
	}
	if c.cache.LastFetched != nil {
		fetched := c.cache.LastFetched.UTC()
		ps.SuggestionsLastFetched = &fetched
	}
	return ps
}

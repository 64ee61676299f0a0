package assistant

import (
	"time"

	"github.com/fentz26/neona-assist/internal/history"
	"github.com/fentz26/neona-assist/internal/models"
	"github.com/fentz26/neona-assist/internal/suggestions"
)

// Phase is the pipeline position. Errors are carried in State.Error, not a phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseProcessing
	PhaseAwaitingConfirmation
	PhaseExecuting
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseProcessing:
		return "processing"
	case PhaseAwaitingConfirmation:
		return "awaiting_confirmation"
	case PhaseExecuting:
		return "executing"
	default:
		return "unknown"
	}
}

// State is a read-only copy of the assistant state.
type State struct {
	ActiveProjectID string
	Utterance       string
	Phase           Phase
	IsProcessing    bool
	Error           string

	LastIntentResult  *models.IntentResult
	SelectedCandidate *models.EntityMatch
	PendingAction     *models.ActionCommand

	UtteranceHistory []string
	RecentActions    []models.ActionResult

	Suggestions            []models.AISuggestion
	SuggestionsProjectID   string
	SuggestionsLastFetched *time.Time
	IsFetchingSuggestions  bool
	SuggestionsLastError   string
	DismissedSuggestions   suggestions.DismissedSet
}

// core is the mutable state guarded by Store.mu.
type core struct {
	activeProjectID string
	utterance       string
	phase           Phase
	err             string

	intent    *models.IntentResult
	candidate *models.EntityMatch
	pending   *models.ActionCommand

	ledger    history.Ledger
	cache     suggestions.Cache
	fetching  int
	dismissed suggestions.DismissedSet
}

// clearInteraction drops the intent result, candidate and pending action together.
func (c *core) clearInteraction() {
	c.intent = nil
	c.candidate = nil
	c.pending = nil
}

func (c *core) snapshot() State {
	st := State{
		ActiveProjectID: c.activeProjectID,
		Utterance:       c.utterance,
		Phase:           c.phase,
		IsProcessing:    c.phase == PhaseProcessing || c.phase == PhaseExecuting,
		Error:           c.err,

		UtteranceHistory: append([]string{}, c.ledger.Utterances...),
		RecentActions:    append([]models.ActionResult{}, c.ledger.Actions...),

		Suggestions:           append([]models.AISuggestion{}, c.cache.Items...),
		SuggestionsProjectID:  c.cache.ProjectID,
		IsFetchingSuggestions: c.fetching > 0,
		SuggestionsLastError:  c.cache.LastError,
		DismissedSuggestions:  c.dismissed.Clone(),
	}
	if c.intent != nil {
		intent := *c.intent
		intent.Entities = append([]models.EntityMatch{}, c.intent.Entities...)
		st.LastIntentResult = &intent
	}
	if c.candidate != nil {
		candidate := *c.candidate
		st.SelectedCandidate = &candidate
	}
	if c.pending != nil {
		pending := *c.pending
		st.PendingAction = &pending
	}
	if c.cache.LastFetched != nil {
		fetched := *c.cache.LastFetched
		st.SuggestionsLastFetched = &fetched
	}
	return st
}

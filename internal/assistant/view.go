package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/fentz26/neona-assist/internal/models"
	"github.com/fentz26/neona-assist/internal/suggestions"
	"go.uber.org/zap"
)

// ProjectView is a suggestion view scoped to one project. Binding makes the
// project active; Close unbinds it.
type ProjectView struct {
	store     *Store
	projectID string
	ttl       time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// Bind activates projectID and returns a view over its suggestions.
// A ttl of zero means suggestions.StaleAfter.
func (s *Store) Bind(projectID string, ttl time.Duration) *ProjectView {
	if ttl <= 0 {
		ttl = suggestions.StaleAfter
	}
	s.SetActiveProjectID(projectID)
	return &ProjectView{
		store:     s,
		projectID: projectID,
		ttl:       ttl,
		done:      make(chan struct{}),
	}
}

// ProjectID returns the bound project.
func (v *ProjectView) ProjectID() string { return v.projectID }

// Suggestions returns the visible suggestions for the bound project.
func (v *ProjectView) Suggestions() []models.AISuggestion {
	st := v.store.Snapshot()
	if st.SuggestionsProjectID != v.projectID {
		return []models.AISuggestion{}
	}
	return suggestions.Visible(st.Suggestions, st.DismissedSuggestions)
}

// IsFetching reports whether any suggestion fetch is in flight.
func (v *ProjectView) IsFetching() bool {
	return v.store.Snapshot().IsFetchingSuggestions
}

// LastFetched returns when the bound project's suggestions were fetched,
// or nil when the cache holds another project's data.
func (v *ProjectView) LastFetched() *time.Time {
	st := v.store.Snapshot()
	if st.SuggestionsProjectID != v.projectID {
		return nil
	}
	return st.SuggestionsLastFetched
}

// ShouldRefetch reports whether the cache is stale for the bound project at now.
func (v *ProjectView) ShouldRefetch(now time.Time) bool {
	st := v.store.Snapshot()
	return suggestions.IsStale(v.projectID, st.SuggestionsProjectID, st.SuggestionsLastFetched, now, v.ttl)
}

// Refresh fetches suggestions for the bound project unconditionally.
func (v *ProjectView) Refresh(ctx context.Context) error {
	return v.store.FetchSuggestions(ctx, v.projectID)
}

// EnsureFresh fetches when the cache is stale and no fetch is running.
// It reports whether a fetch was issued.
func (v *ProjectView) EnsureFresh(ctx context.Context) (bool, error) {
	if v.IsFetching() || !v.ShouldRefetch(v.store.now()) {
		return false, nil
	}
	return true, v.Refresh(ctx)
}

// Watch keeps the bound project's suggestions fresh, checking once
// immediately and then every interval. It blocks until ctx is cancelled or
// the view is closed.
func (v *ProjectView) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	v.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-v.done:
			return
		case <-ticker.C:
			v.tick(ctx)
		}
	}
}

func (v *ProjectView) tick(ctx context.Context) {
	if _, err := v.EnsureFresh(ctx); err != nil {
		v.store.logger.Debug("suggestion refresh failed", zap.String("project_id", v.projectID), zap.Error(err))
	}
}

// Close stops any Watch loop and unbinds the project if it is still active.
func (v *ProjectView) Close() {
	v.closeOnce.Do(func() {
		close(v.done)
		v.store.mu.Lock()
		active := v.store.c.activeProjectID == v.projectID
		v.store.mu.Unlock()
		if active {
			v.store.SetActiveProjectID("")
		}
	})
}

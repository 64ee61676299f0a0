package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/fentz26/neona-assist/internal/models"
	"go.uber.org/zap"
)

// fetchTimeout bounds a shared suggestion fetch, which outlives the context of
// the caller that started it.
const fetchTimeout = 30 * time.Second

// FetchSuggestions loads suggestions for projectID, or for the active project
// when projectID is empty. Concurrent fetches for the same project share one
// request. A caller whose ctx ends returns early with ctx.Err(); the shared
// request keeps running for the callers still waiting on it. Failures are
// logged and kept in SuggestionsLastError; they never touch the pipeline error.
func (s *Store) FetchSuggestions(ctx context.Context, projectID string) error {
	if projectID == "" {
		s.mu.Lock()
		projectID = s.c.activeProjectID
		s.mu.Unlock()
	}
	if projectID == "" {
		s.logger.Warn("no active project; skipping suggestion fetch")
		return nil
	}

	ch := s.fetches.DoChan(projectID, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return nil, s.fetchSuggestions(fetchCtx, projectID)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("joined in-flight suggestion fetch", zap.String("project_id", projectID))
		}
		return res.Err
	}
}

func (s *Store) fetchSuggestions(ctx context.Context, projectID string) error {
	s.update(func(c *core) bool {
		c.fetching++
		return true
	})

	items, err := s.client.GetSuggestions(ctx, projectID)

	s.update(func(c *core) bool {
		c.fetching--
		if err != nil {
			c.cache.LastError = errorMessage(err, MsgSuggestionsFetch)
			return true
		}
		c.cache.Replace(projectID, items, s.now())
		return true
	})

	if err != nil {
		s.logger.Warn("failed to fetch suggestions", zap.String("project_id", projectID), zap.Error(err))
		return fmt.Errorf("fetch suggestions: %w", err)
	}
	s.logger.Debug("fetched suggestions", zap.String("project_id", projectID), zap.Int("count", len(items)))
	return nil
}

// DismissSuggestion removes id from the cache and remembers it as dismissed.
// A blank id is ignored.
func (s *Store) DismissSuggestion(id string) {
	if id == "" {
		return
	}
	s.update(func(c *core) bool {
		removed := c.cache.Remove(id)
		added := c.dismissed.Add(id)
		return removed || added
	})
}

// ApplySuggestionAction records a user decision on a suggestion. Dismissals
// are remembered; accepted and edited suggestions only leave the cache.
func (s *Store) ApplySuggestionAction(action models.SuggestionAction) error {
	if action.SuggestionID == "" {
		return ErrEmptySuggestionID
	}
	switch action.Type {
	case models.SuggestionDismiss:
		s.DismissSuggestion(action.SuggestionID)
	case models.SuggestionAccept, models.SuggestionEdit:
		s.update(func(c *core) bool {
			return c.cache.Remove(action.SuggestionID)
		})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSuggestionAction, action.Type)
	}
	return nil
}

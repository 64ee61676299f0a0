package assistant

import "go.uber.org/zap"

// SetActiveProjectID scopes the assistant to id; "" unbinds. Cached
// suggestions survive only when they were fetched for id.
func (s *Store) SetActiveProjectID(id string) {
	s.update(func(c *core) bool {
		if c.activeProjectID == id {
			return false
		}
		c.activeProjectID = id
		if c.cache.ProjectID != id {
			c.cache.Reset()
		}
		return true
	})
	s.logger.Debug("active project changed", zap.String("project_id", id))
}

// ActiveProjectID returns the current scope, "" when unbound.
func (s *Store) ActiveProjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.activeProjectID
}

// Package suggestions holds the per-project cache of proactive suggestions
// and the consumer-side staleness and dismissal policies.
package suggestions

import (
	"time"

	"github.com/fentz26/neona-assist/internal/models"
)

// StaleAfter is how long a successful fetch is trusted.
const StaleAfter = 5 * time.Minute

// Cache is the suggestion slice of the assistant state.
// Items always belong to exactly ProjectID.
type Cache struct {
	Items       []models.AISuggestion
	ProjectID   string
	LastFetched *time.Time
	IsFetching  bool
	LastError   string
}

// Replace swaps in a fresh result set for projectID.
func (c *Cache) Replace(projectID string, items []models.AISuggestion, now time.Time) {
	if items == nil {
		items = []models.AISuggestion{}
	}
	c.Items = items
	c.ProjectID = projectID
	fetched := now
	c.LastFetched = &fetched
	c.LastError = ""
}

// Remove drops the suggestion with id and reports whether it was present.
func (c *Cache) Remove(id string) bool {
	for i, s := range c.Items {
		if s.ID == id {
			next := make([]models.AISuggestion, 0, len(c.Items)-1)
			next = append(next, c.Items[:i]...)
			next = append(next, c.Items[i+1:]...)
			c.Items = next
			return true
		}
	}
	return false
}

// Reset clears the items, the project marker and the fetch timestamp together.
func (c *Cache) Reset() {
	c.Items = []models.AISuggestion{}
	c.ProjectID = ""
	c.LastFetched = nil
}

// BelongsTo reports whether the cached items were fetched for projectID.
func (c *Cache) BelongsTo(projectID string) bool {
	return projectID != "" && c.ProjectID == projectID
}

// IsStale reports whether a consumer showing projectID should refetch:
// nothing fetched yet for that project, or the last fetch is older than ttl.
func IsStale(projectID, cachedProjectID string, lastFetched *time.Time, now time.Time, ttl time.Duration) bool {
	if projectID == "" {
		return false
	}
	if cachedProjectID != projectID || lastFetched == nil {
		return true
	}
	if ttl <= 0 {
		ttl = StaleAfter
	}
	return now.Sub(*lastFetched) > ttl
}

// Visible returns items whose ids are not in dismissed.
func Visible(items []models.AISuggestion, dismissed DismissedSet) []models.AISuggestion {
	out := make([]models.AISuggestion, 0, len(items))
	for _, s := range items {
		if !dismissed.Has(s.ID) {
			out = append(out, s)
		}
	}
	return out
}

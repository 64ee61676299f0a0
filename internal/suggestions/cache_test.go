package suggestions

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fentz26/neona-assist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStale(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * time.Minute)
	old := now.Add(-6 * time.Minute)

	tests := []struct {
		name        string
		project     string
		cached      string
		lastFetched *time.Time
		want        bool
	}{
		{"no project bound", "", "", nil, false},
		{"never fetched", "p1", "", nil, true},
		{"fetched for other project", "p1", "p2", &recent, true},
		{"fresh", "p1", "p1", &recent, false},
		{"older than ttl", "p1", "p1", &old, true},
		{"marker without timestamp", "p1", "p1", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsStale(tt.project, tt.cached, tt.lastFetched, now, StaleAfter)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCacheReplaceAndRemove(t *testing.T) {
	var c Cache
	now := time.Now()
	c.LastError = "boom"
	c.Replace("p1", []models.AISuggestion{{ID: "a"}, {ID: "b"}, {ID: "c"}}, now)

	require.NotNil(t, c.LastFetched)
	assert.Equal(t, "p1", c.ProjectID)
	assert.Empty(t, c.LastError)
	assert.True(t, c.BelongsTo("p1"))
	assert.False(t, c.BelongsTo("p2"))

	assert.True(t, c.Remove("b"))
	assert.False(t, c.Remove("missing"))
	require.Len(t, c.Items, 2)
	assert.Equal(t, "a", c.Items[0].ID)
	assert.Equal(t, "c", c.Items[1].ID)

	c.Reset()
	assert.Empty(t, c.Items)
	assert.Empty(t, c.ProjectID)
	assert.Nil(t, c.LastFetched)
}

func TestVisibleFiltersDismissed(t *testing.T) {
	items := []models.AISuggestion{{ID: "a"}, {ID: "b"}}
	dismissed := FromList([]string{"b"})
	got := Visible(items, dismissed)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestDismissedSetJSON(t *testing.T) {
	s := NewDismissedSet()
	assert.True(t, s.Add("z"))
	assert.True(t, s.Add("a"))
	assert.False(t, s.Add("a"))
	assert.False(t, s.Add(""))
	assert.False(t, s.Has(""))

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","z"]`, string(data))

	var back DismissedSet
	require.NoError(t, json.Unmarshal([]byte(`["a","z","a"]`), &back))
	assert.Equal(t, 2, back.Len())
	assert.True(t, back.Has("z"))

	var empty DismissedSet
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	assert.NotNil(t, empty)
	assert.Equal(t, 0, empty.Len())
}

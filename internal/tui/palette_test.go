package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaletteCommands(t *testing.T) {
	p := NewPalette()

	p.Update("/pro")
	require.True(t, p.IsVisible())
	require.NotNil(t, p.Selected())
	assert.Equal(t, "project", p.Selected().Text)
	assert.Equal(t, "/project ", p.Selected().Value())

	p.Update("/project proj-1")
	assert.False(t, p.IsVisible())

	p.Update("plain text")
	assert.False(t, p.IsVisible())
	assert.Nil(t, p.Selected())
}

func TestPaletteHistory(t *testing.T) {
	p := NewPalette()
	p.SetHistory([]string{"show my tasks", "create a story"})

	p.Update("@")
	require.True(t, p.IsVisible())
	assert.Equal(t, "show my tasks", p.Selected().Value())

	p.Next()
	assert.Equal(t, "create a story", p.Selected().Text)
	p.Next()
	assert.Equal(t, "show my tasks", p.Selected().Text)
	p.Prev()
	assert.Equal(t, "create a story", p.Selected().Text)

	p.Update("@story")
	assert.Equal(t, "create a story", p.Selected().Text)

	p.Update("@nothing")
	assert.False(t, p.IsVisible())
}

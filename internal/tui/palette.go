package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette provides autocomplete for slash commands and recalled utterances.
type Palette struct {
	items       []PaletteItem
	history     []PaletteItem
	filtered    []PaletteItem
	selectedIdx int
	visible     bool
	prefix      string // "/" or "@"
}

// PaletteItem represents a single autocomplete entry.
type PaletteItem struct {
	Text        string
	Description string
	Type        string // "command" or "history"
}

// Value is what accepting the item puts in the input box.
func (i PaletteItem) Value() string {
	if i.Type == "command" {
		return "/" + i.Text + " "
	}
	return i.Text
}

var commandItems = []PaletteItem{
	{Text: "project", Description: "Bind the assistant to a project", Type: "command"},
	{Text: "leave", Description: "Unbind the current project", Type: "command"},
	{Text: "refresh", Description: "Fetch suggestions now", Type: "command"},
	{Text: "suggestions", Description: "Review proactive suggestions", Type: "command"},
	{Text: "history", Description: "Browse recent requests", Type: "command"},
	{Text: "clear", Description: "Clear requests and actions history", Type: "command"},
	{Text: "cancel", Description: "Drop the pending action", Type: "command"},
	{Text: "whoami", Description: "Show current user info", Type: "command"},
	{Text: "quit", Description: "Exit", Type: "command"},
}

// NewPalette creates an empty palette.
func NewPalette() *Palette {
	return &Palette{items: commandItems}
}

// SetHistory replaces the utterances offered after "@".
func (p *Palette) SetHistory(utterances []string) {
	p.history = make([]PaletteItem, len(utterances))
	for i, u := range utterances {
		p.history[i] = PaletteItem{Text: u, Description: "recent", Type: "history"}
	}
}

// Update updates the palette based on current input.
func (p *Palette) Update(input string) {
	if input == "" || (strings.HasPrefix(input, "/") && strings.Contains(input, " ")) {
		p.hide()
		return
	}

	switch input[0] {
	case '/':
		p.prefix = "/"
		p.items = commandItems
	case '@':
		p.prefix = "@"
		p.items = p.history
	default:
		p.hide()
		return
	}
	p.visible = true
	p.filter(strings.ToLower(input[1:]))
}

func (p *Palette) hide() {
	p.visible = false
	p.filtered = nil
	p.prefix = ""
}

func (p *Palette) filter(query string) {
	p.selectedIdx = 0
	if query == "" {
		p.filtered = p.items
		return
	}

	p.filtered = []PaletteItem{}
	for _, item := range p.items {
		if strings.Contains(strings.ToLower(item.Text), query) {
			p.filtered = append(p.filtered, item)
		}
	}
}

// Next moves to the next item.
func (p *Palette) Next() {
	if len(p.filtered) == 0 {
		return
	}
	p.selectedIdx = (p.selectedIdx + 1) % len(p.filtered)
}

// Prev moves to the previous item.
func (p *Palette) Prev() {
	if len(p.filtered) == 0 {
		return
	}
	p.selectedIdx--
	if p.selectedIdx < 0 {
		p.selectedIdx = len(p.filtered) - 1
	}
}

// Selected returns the highlighted item, or nil.
func (p *Palette) Selected() *PaletteItem {
	if !p.visible || len(p.filtered) == 0 || p.selectedIdx >= len(p.filtered) {
		return nil
	}
	return &p.filtered[p.selectedIdx]
}

// IsVisible returns whether the dropdown is showing.
func (p *Palette) IsVisible() bool {
	return p.visible && len(p.filtered) > 0
}

// Render renders the dropdown.
func (p *Palette) Render(width int) string {
	if !p.IsVisible() {
		return ""
	}

	var b strings.Builder

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(secondaryColor).
		Padding(0, 1).
		Width(width - 4)

	descStyle := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true)

	header := "Commands"
	if p.prefix == "@" {
		header = "Recent requests"
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render(header))
	b.WriteString("\n")

	// Show max 5 items
	maxVisible := 5
	for i, item := range p.filtered {
		if i >= maxVisible {
			b.WriteString(descStyle.Render(fmt.Sprintf("  ... and %d more", len(p.filtered)-maxVisible)))
			break
		}

		var line string
		if i == p.selectedIdx {
			line = selectedStyle.Render("▶ " + item.Text)
		} else {
			line = itemStyle.Render("  " + item.Text)
		}
		if item.Description != "" {
			line += " " + descStyle.Render(item.Description)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return boxStyle.Render(b.String())
}

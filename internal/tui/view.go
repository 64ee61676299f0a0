package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/neona-assist/internal/assistant"
	"github.com/fentz26/neona-assist/internal/models"
)

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.renderHeader() + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 1)) + "\n")

	contentHeight := a.height - 9
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch a.mode {
	case modeSuggestions:
		b.WriteString(a.renderSuggestions(contentHeight))
	case modeHistory:
		b.WriteString(a.renderHistory(contentHeight))
	default:
		b.WriteString(a.renderAssistant(contentHeight))
	}

	// Message bar
	b.WriteString("\n")
	switch {
	case a.state.Error != "":
		b.WriteString(lipgloss.NewStyle().Foreground(errorColor).Render("Error: " + a.state.Error))
	case a.message != "":
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") || strings.HasPrefix(a.message, "✗") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString(msgStyle.Render(a.message))
	}

	// Input box
	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(a.input.View()))

	if a.palette.IsVisible() {
		b.WriteString("\n")
		b.WriteString(a.palette.Render(a.width))
	}
	b.WriteString("\n")

	b.WriteString(statusBarStyle.Width(a.width).Render(a.statusLine()))
	return b.String()
}

func (a *App) renderHeader() string {
	header := titleStyle.Render("NEONA Assistant")

	project := lipgloss.NewStyle().Foreground(mutedColor).Render("○ no project")
	if a.state.ActiveProjectID != "" {
		project = lipgloss.NewStyle().Foreground(cyanColor).Render("● " + a.state.ActiveProjectID)
	}
	header += "  " + project

	if a.state.IsProcessing {
		header += "  " + lipgloss.NewStyle().Foreground(warningColor).Render(a.state.Phase.String()+"...")
	}
	if a.state.IsFetchingSuggestions {
		header += "  " + lipgloss.NewStyle().Foreground(mutedColor).Render("fetching suggestions")
	}

	user := lipgloss.NewStyle().Foreground(mutedColor).Render("○ not signed in")
	if a.user != nil && a.user.ID != "" {
		name := a.user.Username
		if name == "" {
			name = a.user.ID
		}
		user = lipgloss.NewStyle().Foreground(successColor).Render("● " + name)
	}
	return header + "  " + user
}

func (a *App) renderAssistant(height int) string {
	var b strings.Builder

	switch {
	case a.state.Phase == assistant.PhaseProcessing:
		b.WriteString("\n  Interpreting request...\n")
	case a.state.Phase == assistant.PhaseExecuting:
		b.WriteString("\n  Executing " + describePending(a.state.PendingAction) + "...\n")
	case a.state.LastIntentResult != nil:
		b.WriteString(a.renderIntent())
	default:
		b.WriteString(a.renderRecentActions(height))
	}
	return b.String()
}

func (a *App) renderIntent() string {
	var b strings.Builder
	intent := a.state.LastIntentResult

	b.WriteString("\n  " + sectionStyle.Render("Matches") + "\n")
	if len(intent.Entities) == 0 {
		b.WriteString(helpStyle.Render("  No matching items") + "\n")
	}
	for i, match := range intent.Entities {
		marker := " "
		if a.state.SelectedCandidate != nil && a.state.SelectedCandidate.ID == match.ID {
			marker = "✓"
		}
		label := fmt.Sprintf("%s %s  %s", marker, match.Title, lipgloss.NewStyle().Foreground(mutedColor).Render("("+match.Type+")"))
		if match.Confidence > 0 {
			label += fmt.Sprintf(" %.0f%%", match.Confidence*100)
		}
		if i == a.candidateIdx {
			b.WriteString(selectedStyle.Render("▶ "+label) + "\n")
		} else {
			b.WriteString(itemStyle.Render("  "+label) + "\n")
		}
	}

	b.WriteString("\n")
	if a.state.PendingAction != nil {
		b.WriteString("  " + sectionStyle.Render("Pending action") + "\n")
		b.WriteString("    " + describeAction(*a.state.PendingAction) + "\n")
		b.WriteString("\n  " + helpStyle.Render("Enter: confirm | Esc: cancel") + "\n")
	} else if len(intent.Entities) > 0 {
		b.WriteString("  " + helpStyle.Render("↑↓ choose | Enter: select | Esc: cancel") + "\n")
	}
	return b.String()
}

func (a *App) renderRecentActions(height int) string {
	var b strings.Builder

	b.WriteString("\n  " + sectionStyle.Render("Recent actions") + "\n")
	if len(a.state.RecentActions) == 0 {
		b.WriteString(helpStyle.Render("  Nothing yet. Ask for something like \"create a login story\".") + "\n")
		return b.String()
	}

	for i, res := range a.state.RecentActions {
		if i >= height-2 {
			break
		}
		icon := lipgloss.NewStyle().Foreground(successColor).Render("✓")
		if !res.Success {
			icon = lipgloss.NewStyle().Foreground(errorColor).Render("✗")
		}
		when := ""
		if !res.ExecutedAt.IsZero() {
			when = lipgloss.NewStyle().Foreground(mutedColor).Render(formatAge(time.Since(res.ExecutedAt)))
		}
		b.WriteString(fmt.Sprintf("    %s %s  %s\n", icon, res.Message, when))
	}
	return b.String()
}

func (a *App) renderSuggestions(height int) string {
	var b strings.Builder

	b.WriteString("\n  " + sectionStyle.Render("Suggestions") + "\n")
	if a.view == nil {
		b.WriteString(helpStyle.Render("  Bind a project with /project <id>") + "\n")
		return b.String()
	}

	visible := a.visibleSuggestions()
	if len(visible) == 0 {
		b.WriteString(helpStyle.Render("  No suggestions right now") + "\n")
	}
	for i, s := range visible {
		if i >= height-3 {
			break
		}
		label := fmt.Sprintf("%s %s", formatPriority(s.Priority), s.Title)
		if i == a.suggestionIdx {
			b.WriteString(selectedStyle.Render("▶ "+label) + "\n")
			if s.Description != "" {
				b.WriteString(lipgloss.NewStyle().Foreground(mutedColor).Render("      "+s.Description) + "\n")
			}
		} else {
			b.WriteString(itemStyle.Render("  "+label) + "\n")
		}
	}

	if fetched := a.view.LastFetched(); fetched != nil {
		b.WriteString("\n  " + helpStyle.Render("Updated "+formatAge(time.Since(*fetched))) + "\n")
	}
	if a.state.SuggestionsLastError != "" {
		b.WriteString("  " + lipgloss.NewStyle().Foreground(warningColor).Render("Last fetch failed: "+a.state.SuggestionsLastError) + "\n")
	}
	return b.String()
}

func (a *App) renderHistory(height int) string {
	var b strings.Builder

	b.WriteString("\n  " + sectionStyle.Render("Recent requests") + "\n")
	if len(a.state.UtteranceHistory) == 0 {
		b.WriteString(helpStyle.Render("  No requests yet") + "\n")
		return b.String()
	}
	for i, u := range a.state.UtteranceHistory {
		if i >= height-2 {
			break
		}
		if i == a.historyIdx {
			b.WriteString(selectedStyle.Render("▶ "+u) + "\n")
		} else {
			b.WriteString(itemStyle.Render("  "+u) + "\n")
		}
	}
	return b.String()
}

func (a *App) statusLine() string {
	switch a.mode {
	case modeSuggestions:
		return fmt.Sprintf(" Suggestions: %d | ↑↓:nav | a:accept | d:dismiss | r:refresh | Tab:history | Esc:back", len(a.visibleSuggestions()))
	case modeHistory:
		return fmt.Sprintf(" History: %d | ↑↓:nav | Enter:reuse | x:clear | Tab:assistant | Esc:back", len(a.state.UtteranceHistory))
	default:
		return " Enter:send | /:commands | @:recent | Tab:suggestions | Ctrl+C:quit"
	}
}

func describePending(cmd *models.ActionCommand) string {
	if cmd == nil {
		return "action"
	}
	return describeAction(*cmd)
}

func formatPriority(p string) string {
	switch p {
	case "high":
		return lipgloss.NewStyle().Foreground(errorColor).Render("●")
	case "medium":
		return lipgloss.NewStyle().Foreground(warningColor).Render("●")
	default:
		return lipgloss.NewStyle().Foreground(mutedColor).Render("○")
	}
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

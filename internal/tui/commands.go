package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fentz26/neona-assist/internal/assistant"
	"github.com/fentz26/neona-assist/internal/models"
)

// opDoneMsg reports the end of a store operation run as a tea.Cmd.
type opDoneMsg struct {
	note string
	err  error
}

func (m opDoneMsg) message() string {
	if m.err == nil {
		return m.note
	}
	// These already surface through State.Error.
	if errors.Is(m.err, assistant.ErrNoActiveProject) ||
		errors.Is(m.err, assistant.ErrInterpretFailed) ||
		errors.Is(m.err, assistant.ErrExecuteFailed) {
		return ""
	}
	return "Error: " + m.err.Error()
}

func (a *App) submit(text string) tea.Cmd {
	return func() tea.Msg {
		err := a.store.SubmitUtterance(context.Background(), text)
		return opDoneMsg{err: err}
	}
}

func (a *App) confirm() tea.Cmd {
	return func() tea.Msg {
		if err := a.store.ConfirmAction(context.Background()); err != nil {
			return opDoneMsg{err: err}
		}
		st := a.store.Snapshot()
		if len(st.RecentActions) == 0 {
			return opDoneMsg{}
		}
		last := st.RecentActions[0]
		if !last.Success {
			return opDoneMsg{note: "✗ " + last.Message}
		}
		return opDoneMsg{note: "✓ " + last.Message}
	}
}

func (a *App) refresh() tea.Cmd {
	if a.view == nil {
		a.message = assistant.MsgNoActiveProject
		return nil
	}
	view := a.view
	return func() tea.Msg {
		if err := view.Refresh(context.Background()); err != nil {
			return opDoneMsg{err: fmt.Errorf("suggestions unavailable: %w", err)}
		}
		return opDoneMsg{note: fmt.Sprintf("✓ %d suggestions", len(view.Suggestions()))}
	}
}

func (a *App) applySuggestion(action models.SuggestionAction) tea.Cmd {
	if err := a.store.ApplySuggestionAction(action); err != nil {
		a.message = "Error: " + err.Error()
		return nil
	}
	if action.Type == models.SuggestionAccept {
		a.message = "✓ Suggestion accepted"
	} else {
		a.message = "✓ Suggestion dismissed"
	}
	return nil
}

// runCommand executes a slash command typed into the input box.
func (a *App) runCommand(input string) tea.Cmd {
	parts := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(parts) == 0 {
		return nil
	}

	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "project":
		if len(args) < 1 {
			a.message = "Usage: /project <id>"
			return nil
		}
		a.bindProject(args[0])
		a.message = "✓ Project " + args[0]
		return nil

	case "leave":
		a.unbindProject()
		a.message = "Project unbound"
		return nil

	case "refresh":
		return a.refresh()

	case "suggestions":
		a.switchMode(modeSuggestions)
		return nil

	case "history":
		a.switchMode(modeHistory)
		return nil

	case "clear":
		a.store.ClearHistory()
		a.message = "✓ History cleared"
		return nil

	case "cancel":
		a.store.CancelAction()
		a.message = "Cancelled"
		return nil

	case "whoami":
		if a.user == nil || a.user.ID == "" {
			a.message = "Not signed in"
			return nil
		}
		a.message = fmt.Sprintf("Signed in as %s (%s)", a.user.Username, a.user.Email)
		return nil

	case "q", "quit", "exit":
		return tea.Quit

	default:
		a.message = fmt.Sprintf("Unknown: /%s (try: /project, /refresh, /history, /clear)", cmd)
		return nil
	}
}

func describeAction(cmd models.ActionCommand) string {
	if cmd.Description != "" {
		return cmd.Description
	}
	if cmd.EntityID != "" {
		return fmt.Sprintf("%s %s", cmd.Type, cmd.EntityID)
	}
	return cmd.Type
}

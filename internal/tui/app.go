// Package tui provides the interactive terminal UI for the Neona assistant.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/neona-assist/internal/assistant"
	"github.com/fentz26/neona-assist/internal/auth"
	"github.com/fentz26/neona-assist/internal/models"
	"go.uber.org/zap"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")
	cyanColor      = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	itemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyanColor)
)

type mode int

const (
	modeAssistant mode = iota
	modeSuggestions
	modeHistory
)

func (m mode) String() string {
	switch m {
	case modeSuggestions:
		return "suggestions"
	case modeHistory:
		return "history"
	default:
		return "assistant"
	}
}

// Options configures the TUI.
type Options struct {
	Store        *assistant.Store
	Logger       *zap.Logger
	User         *auth.User
	ProjectID    string
	StaleAfter   time.Duration
	PollInterval time.Duration
}

// App is the main TUI application model.
type App struct {
	store        *assistant.Store
	logger       *zap.Logger
	user         *auth.User
	staleAfter   time.Duration
	pollInterval time.Duration

	view        *assistant.ProjectView
	stopWatch   context.CancelFunc
	updates     chan assistant.State
	unsubscribe func()

	state         assistant.State
	input         textinput.Model
	palette       *Palette
	mode          mode
	candidateIdx  int
	suggestionIdx int
	historyIdx    int
	message       string
	width         int
	height        int
}

// New creates a new TUI application bound to opts.ProjectID, if set.
func New(opts Options) *App {
	ti := textinput.New()
	ti.Placeholder = "Ask the assistant, or type / for commands"
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 80

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		store:        opts.Store,
		logger:       logger,
		user:         opts.User,
		staleAfter:   opts.StaleAfter,
		pollInterval: opts.PollInterval,
		updates:      make(chan assistant.State, 1),
		input:        ti,
		palette:      NewPalette(),
		width:        80,
		height:       24,
	}
	a.unsubscribe = a.store.Subscribe(a.publish)
	if opts.ProjectID != "" {
		a.bindProject(opts.ProjectID)
	}
	a.state = a.store.Snapshot()
	return a
}

// Run starts the TUI application.
func (a *App) Run() error {
	defer a.Close()
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Close stops the suggestion watcher and unbinds the project.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	a.unbindProject()
}

// publish forwards the latest state to the program, dropping older pending ones.
func (a *App) publish(st assistant.State) {
	select {
	case a.updates <- st:
		return
	default:
	}
	select {
	case <-a.updates:
	default:
	}
	select {
	case a.updates <- st:
	default:
	}
}

func (a *App) bindProject(projectID string) {
	a.unbindProject()
	a.view = a.store.Bind(projectID, a.staleAfter)

	ctx, cancel := context.WithCancel(context.Background())
	a.stopWatch = cancel
	go a.view.Watch(ctx, a.pollInterval)
	a.logger.Info("bound project", zap.String("project_id", projectID))
}

func (a *App) unbindProject() {
	if a.stopWatch != nil {
		a.stopWatch()
		a.stopWatch = nil
	}
	if a.view != nil {
		a.view.Close()
		a.view = nil
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.waitForState(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := a.handleKey(msg); handled {
			return a, cmd
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4

	case stateMsg:
		a.setState(assistant.State(msg))
		return a, a.waitForState()

	case opDoneMsg:
		a.setState(a.store.Snapshot())
		a.message = msg.message()
		return a, nil
	}

	if a.mode == modeAssistant {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		cmds = append(cmds, cmd)
		a.store.SetUtterance(a.input.Value())
		a.palette.SetHistory(a.state.UtteranceHistory)
		a.palette.Update(a.input.Value())
	}

	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true

	case "tab":
		if a.palette.IsVisible() {
			a.acceptPalette()
			return nil, true
		}
		a.switchMode((a.mode + 1) % 3)
		return nil, true
	}

	switch a.mode {
	case modeSuggestions:
		return a.handleSuggestionKey(msg), true
	case modeHistory:
		return a.handleHistoryKey(msg), true
	}
	return a.handleAssistantKey(msg)
}

func (a *App) handleAssistantKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	candidates := a.candidates()

	switch msg.String() {
	case "esc":
		if a.palette.IsVisible() {
			a.palette.Update("")
			return nil, true
		}
		if a.state.Error != "" {
			a.store.ClearError()
			return nil, true
		}
		a.store.CancelAction()
		a.message = "Cancelled"
		return nil, true

	case "up":
		if a.palette.IsVisible() {
			a.palette.Prev()
		} else if a.candidateIdx > 0 {
			a.candidateIdx--
		}
		return nil, true

	case "down":
		if a.palette.IsVisible() {
			a.palette.Next()
		} else if a.candidateIdx < len(candidates)-1 {
			a.candidateIdx++
		}
		return nil, true

	case "enter":
		if a.palette.IsVisible() {
			a.acceptPalette()
			return nil, true
		}
		text := strings.TrimSpace(a.input.Value())
		if text != "" {
			a.input.SetValue("")
			a.palette.Update("")
			if strings.HasPrefix(text, "/") {
				return a.runCommand(text), true
			}
			return a.submit(text), true
		}
		if a.state.IsProcessing {
			return nil, true
		}
		if a.state.PendingAction != nil {
			return a.confirm(), true
		}
		if len(candidates) > 0 {
			a.chooseCandidate(candidates[a.candidateIdx])
		}
		return nil, true
	}
	return nil, false
}

func (a *App) handleSuggestionKey(msg tea.KeyMsg) tea.Cmd {
	visible := a.visibleSuggestions()

	switch msg.String() {
	case "esc":
		a.switchMode(modeAssistant)
	case "up", "k":
		if a.suggestionIdx > 0 {
			a.suggestionIdx--
		}
	case "down", "j":
		if a.suggestionIdx < len(visible)-1 {
			a.suggestionIdx++
		}
	case "r":
		return a.refresh()
	case "d", "a":
		if len(visible) == 0 {
			return nil
		}
		action := models.SuggestionAction{
			Type:         models.SuggestionDismiss,
			SuggestionID: visible[a.suggestionIdx].ID,
		}
		if msg.String() == "a" {
			action.Type = models.SuggestionAccept
		}
		return a.applySuggestion(action)
	}
	return nil
}

func (a *App) handleHistoryKey(msg tea.KeyMsg) tea.Cmd {
	hist := a.state.UtteranceHistory

	switch msg.String() {
	case "esc":
		a.switchMode(modeAssistant)
	case "up", "k":
		if a.historyIdx > 0 {
			a.historyIdx--
		}
	case "down", "j":
		if a.historyIdx < len(hist)-1 {
			a.historyIdx++
		}
	case "enter":
		if len(hist) > 0 {
			a.input.SetValue(hist[a.historyIdx])
			a.input.CursorEnd()
			a.switchMode(modeAssistant)
		}
	case "x":
		a.store.ClearHistory()
		a.message = "✓ History cleared"
	}
	return nil
}

func (a *App) switchMode(m mode) {
	a.mode = m
	if m == modeAssistant {
		a.input.Focus()
	} else {
		a.input.Blur()
		a.palette.Update("")
	}
}

func (a *App) acceptPalette() {
	if selected := a.palette.Selected(); selected != nil {
		a.input.SetValue(selected.Value())
		a.input.CursorEnd()
		a.palette.Update("")
	}
}

// chooseCandidate selects match and binds the suggested action to it.
func (a *App) chooseCandidate(match models.EntityMatch) {
	a.store.SelectCandidate(match)
	intent := a.state.LastIntentResult
	if intent == nil {
		return
	}
	if bound := models.ActionForCandidate(intent.SuggestedAction, match); bound != nil {
		if err := a.store.SetPendingAction(*bound); err != nil {
			a.message = "Error: " + err.Error()
			return
		}
		a.message = "Press Enter to confirm: " + describeAction(*bound)
		return
	}
	a.message = "Selected " + match.Title
}

func (a *App) setState(st assistant.State) {
	a.state = st
	a.candidateIdx = clamp(a.candidateIdx, len(a.candidates()))
	a.suggestionIdx = clamp(a.suggestionIdx, len(a.visibleSuggestions()))
	a.historyIdx = clamp(a.historyIdx, len(st.UtteranceHistory))
}

func (a *App) candidates() []models.EntityMatch {
	if a.state.LastIntentResult == nil {
		return nil
	}
	return a.state.LastIntentResult.Entities
}

func (a *App) visibleSuggestions() []models.AISuggestion {
	if a.view == nil {
		return nil
	}
	return a.view.Suggestions()
}

func (a *App) waitForState() tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-a.updates)
	}
}

func clamp(idx, n int) int {
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

type stateMsg assistant.State

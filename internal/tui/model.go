// Package tui implements the full-screen review interface.
package tui

import (
	"context"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/engine"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Reviewer is the orchestrator surface the TUI drives.
type Reviewer interface {
	Start(ctx context.Context) error
	Candidates() []model.Candidate
	Open(id string) error
	UpdateTag(text string) error
	Cancel() error
	Confirm(ctx context.Context) (*engine.Outcome, error)
}

// State represents the current state of the TUI.
type State int

// TUI states.
const (
	StateLoading State = iota
	StateList
	StateTagging
	StateSubmitting
	StateBlocked
)

// statusKind selects the style of the status line.
type statusKind int

const (
	statusNone statusKind = iota
	statusSuccess
	statusWarning
	statusError
)

// Model holds the main TUI state.
type Model struct {
	ctx        context.Context
	reviewer   Reviewer
	theme      themes.Theme
	keymap     KeyMap
	help       help.Model
	input      textinput.Model
	spinner    spinner.Model
	config     Config
	status     string
	active     model.Candidate
	candidates []model.Candidate
	width      int
	height     int
	cursor     int
	reconciled int
	state      State
	statusKind statusKind
	quitting   bool
}

// newModel creates a new model with the given configuration.
func newModel(ctx context.Context, reviewer Reviewer, cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "what was this for?"
	input.Prompt = "Tag › "
	input.CharLimit = 200
	input.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = sp.Style.Foreground(cfg.Theme.Primary)

	h := help.New()
	h.ShowAll = false

	m := Model{
		ctx:      ctx,
		reviewer: reviewer,
		theme:    cfg.Theme,
		keymap:   DefaultKeyMap(),
		help:     h,
		input:    input,
		spinner:  sp,
		config:   cfg,
		width:    cfg.Width,
		height:   cfg.Height,
		state:    StateLoading,
	}
	if cfg.Preloaded {
		m.state = StateList
		m.refresh()
	}
	return m
}

// Init starts loading the inbox unless it is already loaded.
func (m Model) Init() tea.Cmd {
	if m.state != StateLoading {
		return nil
	}
	return tea.Batch(m.load(), m.spinner.Tick)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.state != StateLoading && m.state != StateSubmitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		return m.handleLoaded(msg), nil

	case submittedMsg:
		return m.handleSubmitted(msg), nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.ForceQuit) {
			if m.state == StateTagging {
				_ = m.reviewer.Cancel()
			}
			m.quitting = true
			return m, tea.Quit
		}
		switch m.state {
		case StateList, StateBlocked:
			return m.updateList(msg)
		case StateTagging:
			return m.updateTagging(msg)
		}
	}
	return m, nil
}

func (m Model) handleLoaded(msg loadedMsg) Model {
	if msg.err != nil {
		m.state = StateBlocked
		m.candidates = nil
		m.setStatus(statusError, common.UserMessage(msg.err))
		return m
	}
	m.state = StateList
	m.refresh()
	if len(m.candidates) == 0 {
		m.setStatus(statusNone, "")
	}
	return m
}

func (m Model) handleSubmitted(msg submittedMsg) Model {
	m.state = StateList
	m.active = model.Candidate{}
	m.refresh()

	if msg.err != nil {
		m.setStatus(statusError, common.UserMessage(msg.err))
		return m
	}
	m.reconciled++
	if msg.outcome != nil && msg.outcome.PruneErr != nil {
		m.setStatus(statusWarning, "Added to ledger, but the message could not be deleted")
		return m
	}
	m.setStatus(statusSuccess, "Added to ledger")
	return m
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keymap.Refresh):
		m.state = StateLoading
		m.setStatus(statusNone, "")
		return m, tea.Batch(m.load(), m.spinner.Tick)
	case m.state == StateBlocked:
		return m, nil
	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(m.candidates)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keymap.Home):
		m.cursor = 0
	case key.Matches(msg, m.keymap.End):
		if len(m.candidates) > 0 {
			m.cursor = len(m.candidates) - 1
		}
	case key.Matches(msg, m.keymap.Select):
		return m.openSelected()
	}
	return m, nil
}

func (m Model) openSelected() (tea.Model, tea.Cmd) {
	if len(m.candidates) == 0 {
		return m, nil
	}
	c := m.candidates[m.cursor]
	if err := m.reviewer.Open(c.ID); err != nil {
		m.setStatus(statusError, common.UserMessage(err))
		return m, nil
	}
	m.active = c
	m.state = StateTagging
	m.setStatus(statusNone, "")
	m.input.Reset()
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) updateTagging(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		if err := m.reviewer.Cancel(); err != nil {
			m.setStatus(statusError, common.UserMessage(err))
		}
		m.input.Blur()
		m.active = model.Candidate{}
		m.state = StateList
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keymap.Confirm):
		if err := m.reviewer.UpdateTag(m.input.Value()); err != nil {
			m.setStatus(statusError, common.UserMessage(err))
			return m, nil
		}
		m.input.Blur()
		m.state = StateSubmitting
		return m, tea.Batch(m.confirm(), m.spinner.Tick)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		if err := m.reviewer.UpdateTag(value); err != nil {
			m.setStatus(statusError, common.UserMessage(err))
		}
	}
	return m, cmd
}

// refresh reloads candidates and keeps the cursor in range.
func (m *Model) refresh() {
	m.candidates = m.reviewer.Candidates()
	if m.cursor >= len(m.candidates) {
		m.cursor = len(m.candidates) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}

// State returns the current UI state.
func (m Model) State() State {
	return m.state
}

// Reconciled returns how many candidates were confirmed in this session.
func (m Model) Reconciled() int {
	return m.reconciled
}

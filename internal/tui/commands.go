package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// load runs the reviewer's start sequence off the UI goroutine.
func (m Model) load() tea.Cmd {
	reviewer, ctx := m.reviewer, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: reviewer.Start(ctx)}
	}
}

// confirm submits the open candidate off the UI goroutine.
func (m Model) confirm() tea.Cmd {
	reviewer, ctx := m.reviewer, m.ctx
	return func() tea.Msg {
		outcome, err := reviewer.Confirm(ctx)
		return submittedMsg{outcome: outcome, err: err}
	}
}

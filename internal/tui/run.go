package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Result summarizes a finished TUI session.
type Result struct {
	Reconciled int
}

// Run starts the review TUI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, reviewer Reviewer, opts ...Option) (Result, error) {
	if reviewer == nil {
		return Result{}, fmt.Errorf("reviewer is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	program := tea.NewProgram(newModel(ctx, reviewer, cfg),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	final, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return Result{}, fmt.Errorf("TUI error: %w", err)
	}

	var res Result
	if m, ok := final.(Model); ok {
		res.Reconciled = m.Reconciled()
	}
	return res, nil
}

package tui

import "github.com/Veraticus/smsledger/internal/engine"

// loadedMsg reports the end of a permission, fetch and extract run.
type loadedMsg struct {
	err error
}

// submittedMsg reports the end of a ledger submission.
type submittedMsg struct {
	outcome *engine.Outcome
	err     error
}

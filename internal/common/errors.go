// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Message store errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Permission errors.
	ErrPermissionDenied = errors.New("permission denied")

	// Reconciliation errors.
	ErrReconciliationRejected  = errors.New("reconciliation rejected by ledger")
	ErrReconciliationTransport = errors.New("reconciliation transport failure")

	// Pruning errors. Never surfaced to the user.
	ErrPruneFailed = errors.New("prune failed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UserMessage returns the user-facing message of err, or err.Error() when
// err carries none.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return err.Error()
}

// IsReconciliationFailure reports whether err is a rejected or failed ledger submission.
func IsReconciliationFailure(err error) bool {
	return errors.Is(err, ErrReconciliationRejected) || errors.Is(err, ErrReconciliationTransport)
}

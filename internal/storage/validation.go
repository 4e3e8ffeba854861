package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/smsledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidMessage = errors.New("invalid message")
	ErrInvalidRecord  = errors.New("invalid reconciliation record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateMessage validates a message before it is written to the inbox.
func validateMessage(msg *model.RawMessage) error {
	if msg == nil {
		return fmt.Errorf("%w: message", ErrNilParameter)
	}
	if strings.TrimSpace(msg.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidMessage)
	}
	return nil
}

// validateRecord validates a journal record.
func validateRecord(record *model.ReconciliationRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if strings.TrimSpace(record.RequestID) == "" {
		return fmt.Errorf("%w: missing request ID", ErrInvalidRecord)
	}
	if strings.TrimSpace(record.MessageID) == "" {
		return fmt.Errorf("%w: missing message ID", ErrInvalidRecord)
	}
	switch record.Outcome {
	case model.OutcomeReconciled, model.OutcomeRejected, model.OutcomeTransportError:
	default:
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidRecord, record.Outcome)
	}
	if record.AttemptedAt.IsZero() {
		return fmt.Errorf("%w: missing attempt time", ErrInvalidRecord)
	}
	return nil
}

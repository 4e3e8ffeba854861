// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/smsledger/internal/model"
)

// MessageStore is the read/delete contract of the device message store.
type MessageStore interface {
	// List returns every message in box, in store order.
	List(ctx context.Context, box string) ([]model.RawMessage, error)
	// Delete removes one message. Returns common.ErrNotFound if it is gone.
	Delete(ctx context.Context, id string) error
}

// PermissionGate guards read access to the message store.
type PermissionGate interface {
	// Check reports whether read access is already granted.
	Check(ctx context.Context) (bool, error)
	// Request asks for read access and reports the decision.
	Request(ctx context.Context) (bool, error)
}

// Ledger submits one annotated candidate to the remote ledger.
// Implementations perform a single attempt and never retry.
type Ledger interface {
	Submit(ctx context.Context, candidate model.Candidate, tag string) (*Receipt, error)
}

// Receipt is returned for a submission the ledger acknowledged.
type Receipt struct {
	SubmittedAt time.Time
	RequestID   string
	Status      string
}

// Journal records reconciliation attempts for auditing.
type Journal interface {
	RecordReconciliation(ctx context.Context, record *model.ReconciliationRecord) error
	MarkPruned(ctx context.Context, requestID string) error
	ListReconciliations(ctx context.Context, filter JournalFilter) ([]model.ReconciliationRecord, error)
}

// JournalFilter defines filtering options for journal queries.
type JournalFilter struct {
	Since     *time.Time
	MessageID string
	Outcome   model.ReconciliationOutcome
	Limit     int
}

// Package model defines the core domain models used throughout the application.
package model

import "time"

// CandidateStatus tracks where a candidate is in the review lifecycle.
type CandidateStatus string

// Candidate status constants.
const (
	StatusPending    CandidateStatus = "PENDING"
	StatusAnnotating CandidateStatus = "ANNOTATING"
	StatusSubmitting CandidateStatus = "SUBMITTING"
	StatusReconciled CandidateStatus = "RECONCILED"
	StatusFailed     CandidateStatus = "FAILED"
)

// IsActive reports whether the status belongs to an open annotation session.
func (s CandidateStatus) IsActive() bool {
	return s == StatusAnnotating || s == StatusSubmitting
}

// ReconciliationOutcome is the recorded result of one submission attempt.
type ReconciliationOutcome string

// Reconciliation outcome constants.
const (
	OutcomeReconciled     ReconciliationOutcome = "RECONCILED"
	OutcomeRejected       ReconciliationOutcome = "REJECTED"
	OutcomeTransportError ReconciliationOutcome = "TRANSPORT_ERROR"
)

// ReconciliationRecord is one entry of the reconciliation journal.
type ReconciliationRecord struct {
	AttemptedAt time.Time
	RequestID   string
	MessageID   string
	Type        TransactionType
	Amount      string
	Tags        string
	Outcome     ReconciliationOutcome
	Detail      string
	ID          int64
	Pruned      bool
}

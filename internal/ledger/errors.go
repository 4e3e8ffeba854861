package ledger

import (
	"fmt"

	"github.com/Veraticus/smsledger/internal/common"
)

// RejectedError is a well-formed response from the ledger that is not a success.
type RejectedError struct {
	RequestID  string
	Status     string
	Detail     string
	HTTPStatus int
}

func (e *RejectedError) Error() string {
	msg := fmt.Sprintf("ledger rejected submission (http %d, status %q)", e.HTTPStatus, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *RejectedError) Unwrap() error {
	return common.ErrReconciliationRejected
}

// SubmissionID returns the correlation id sent with the request.
func (e *RejectedError) SubmissionID() string {
	return e.RequestID
}

// TransportError covers network failures, timeouts and unreadable responses.
type TransportError struct {
	Err        error
	RequestID  string
	Op         string
	HTTPStatus int
}

func (e *TransportError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("ledger %s (http %d): %v", e.Op, e.HTTPStatus, e.Err)
	}
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

// Unwrap exposes both the transport sentinel and the underlying cause.
func (e *TransportError) Unwrap() []error {
	return []error{common.ErrReconciliationTransport, e.Err}
}

// SubmissionID returns the correlation id sent with the request.
func (e *TransportError) SubmissionID() string {
	return e.RequestID
}

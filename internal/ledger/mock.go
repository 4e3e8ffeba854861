package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/google/uuid"
)

// MockLedger is a mock implementation of service.Ledger for testing.
type MockLedger struct {
	SubmitFunc  func(ctx context.Context, candidate model.Candidate, tag string) (*service.Receipt, error)
	SubmitCalls []SubmitCall
	mu          sync.Mutex
}

// SubmitCall records a single call to Submit.
type SubmitCall struct {
	Error     error
	Candidate model.Candidate
	Tag       string
}

// NewMockLedger creates a mock that accepts every submission.
func NewMockLedger() *MockLedger {
	return &MockLedger{}
}

// Submit implements service.Ledger.
func (m *MockLedger) Submit(ctx context.Context, candidate model.Candidate, tag string) (*service.Receipt, error) {
	m.mu.Lock()
	fn := m.SubmitFunc
	n := len(m.SubmitCalls) + 1
	m.mu.Unlock()

	var (
		receipt *service.Receipt
		err     error
	)
	if fn != nil {
		receipt, err = fn(ctx, candidate, tag)
	} else {
		receipt = &service.Receipt{
			SubmittedAt: time.Now(),
			RequestID:   fmt.Sprintf("mock-%s-%d", candidate.ID, n),
			Status:      statusSuccess,
		}
	}

	m.mu.Lock()
	m.SubmitCalls = append(m.SubmitCalls, SubmitCall{Candidate: candidate, Tag: tag, Error: err})
	m.mu.Unlock()

	return receipt, err
}

// Reject configures the mock to answer every submission with a rejection.
func (m *MockLedger) Reject(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitFunc = func(_ context.Context, c model.Candidate, _ string) (*service.Receipt, error) {
		return nil, &RejectedError{RequestID: "mock-rejected-" + c.ID + "-" + uuid.NewString(), Status: status, HTTPStatus: 200}
	}
}

// Calls returns a copy of all submit calls.
func (m *MockLedger) Calls() []SubmitCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]SubmitCall, len(m.SubmitCalls))
	copy(calls, m.SubmitCalls)
	return calls
}

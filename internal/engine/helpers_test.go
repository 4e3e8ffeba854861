package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/smsledger/internal/ledger"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/Veraticus/smsledger/internal/testutil"
	"github.com/stretchr/testify/require"
)

type fakeGate struct {
	checkErr   error
	checked    bool
	onRequest  bool
	requests   int
	mu         sync.Mutex
}

func (g *fakeGate) Check(context.Context) (bool, error) {
	return g.checked, g.checkErr
}

func (g *fakeGate) Request(context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests++
	return g.onRequest, nil
}

// recordingMessages wraps a message store and records every call.
type recordingMessages struct {
	service.MessageStore
	deleteErr error
	deletes   []string
	lists     int
	mu        sync.Mutex
}

func (r *recordingMessages) List(ctx context.Context, box string) ([]model.RawMessage, error) {
	r.mu.Lock()
	r.lists++
	r.mu.Unlock()
	return r.MessageStore.List(ctx, box)
}

func (r *recordingMessages) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	r.deletes = append(r.deletes, id)
	err := r.deleteErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.MessageStore.Delete(ctx, id)
}

func (r *recordingMessages) Deletes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.deletes...)
}

type failingJournal struct {
	service.Journal
}

func (failingJournal) RecordReconciliation(context.Context, *model.ReconciliationRecord) error {
	return errors.New("disk full")
}

func (failingJournal) MarkPruned(context.Context, string) error {
	return errors.New("disk full")
}

type fixture struct {
	orch     *Orchestrator
	inbox    *testutil.TestInbox
	messages *recordingMessages
	ledger   *ledger.MockLedger
	gate     *fakeGate
}

func newFixture(t *testing.T, msgs []model.RawMessage, opts ...func(*Config)) *fixture {
	t.Helper()

	inbox := testutil.SetupTestInbox(t, msgs...)
	f := &fixture{
		inbox:    inbox,
		messages: &recordingMessages{MessageStore: inbox.Storage},
		ledger:   ledger.NewMockLedger(),
		gate:     &fakeGate{checked: true},
	}

	cfg := Config{
		Messages:      f.messages,
		Permission:    f.gate,
		Ledger:        f.ledger,
		Journal:       inbox.Storage,
		SubmitTimeout: time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	orch, err := New(cfg)
	require.NoError(t, err)
	f.orch = orch
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.orch.Start(context.Background()))
}

func (f *fixture) journal(t *testing.T) []model.ReconciliationRecord {
	t.Helper()
	records, err := f.inbox.Storage.ListReconciliations(context.Background(), service.JournalFilter{})
	require.NoError(t, err)
	return records
}

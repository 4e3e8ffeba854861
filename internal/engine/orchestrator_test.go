package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/review"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/Veraticus/smsledger/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestrator_SuccessfulReconciliation(t *testing.T) {
	msgs := testutil.NewMessages().
		With("1", "VM-BANK", "Your account is credited for INR 2,500.00").
		Build()
	f := newFixture(t, msgs)
	f.start(t)

	assert.Equal(t, StateIdle, f.orch.State())
	candidates := f.orch.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, model.Credit, candidates[0].Type)
	assert.Equal(t, "2,500.00", candidates[0].Amount)
	assert.Equal(t, model.StatusPending, candidates[0].Status)

	require.NoError(t, f.orch.Open("1"))
	assert.Equal(t, StateAnnotating, f.orch.State())
	require.NoError(t, f.orch.UpdateTag("rent"))

	outcome, err := f.orch.Confirm(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Reconciled())
	assert.True(t, outcome.Pruned)
	assert.NoError(t, outcome.PruneErr)

	calls := f.ledger.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "rent", calls[0].Tag)
	assert.Equal(t, "2,500.00", calls[0].Candidate.Amount)
	assert.Equal(t, model.StatusSubmitting, calls[0].Candidate.Status)

	assert.Empty(t, f.orch.Candidates())
	assert.Equal(t, []string{"1"}, f.messages.Deletes())
	f.inbox.MustNotContain("1")
	assert.Equal(t, StateIdle, f.orch.State())
	_, open := f.orch.Active()
	assert.False(t, open)

	records := f.journal(t)
	require.Len(t, records, 1)
	assert.Equal(t, model.OutcomeReconciled, records[0].Outcome)
	assert.Equal(t, outcome.RequestID, records[0].RequestID)
	assert.Equal(t, "rent", records[0].Tags)
	assert.True(t, records[0].Pruned)
}

func TestOrchestrator_RejectedReconciliation(t *testing.T) {
	msgs := testutil.NewMessages().
		With("1", "VM-BANK", "Your account is credited for INR 2,500.00").
		Build()
	f := newFixture(t, msgs)
	f.ledger.Reject("error")
	f.start(t)

	require.NoError(t, f.orch.Open("1"))
	require.NoError(t, f.orch.UpdateTag("rent"))
	outcome, err := f.orch.Confirm(context.Background())

	require.Error(t, err)
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.ErrorIs(t, err, common.ErrReconciliationRejected)
	assert.Equal(t, model.OutcomeRejected, outcome.Result)
	assert.False(t, outcome.Pruned)
	assert.Equal(t, err, f.orch.LastError())

	candidates := f.orch.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, "1", candidates[0].ID)
	assert.Equal(t, model.StatusFailed, candidates[0].Status)
	assert.Equal(t, "2,500.00", candidates[0].Amount)

	assert.Empty(t, f.messages.Deletes())
	f.inbox.MustContain("1")
	assert.Equal(t, StateIdle, f.orch.State())

	records := f.journal(t)
	require.Len(t, records, 1)
	assert.Equal(t, model.OutcomeRejected, records[0].Outcome)
	assert.False(t, records[0].Pruned)

	// A failed candidate can be opened again.
	require.NoError(t, f.orch.Open("1"))
	tagged, ok := f.orch.Active()
	require.True(t, ok)
	assert.Empty(t, tagged.Tag)
}

func TestOrchestrator_OnlyMatchingMessagesBecomeCandidates(t *testing.T) {
	msgs := testutil.NewMessages().
		Promo("1").
		Debit("2", "500").
		Build()
	f := newFixture(t, msgs)
	f.start(t)

	candidates := f.orch.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, "2", candidates[0].ID)
	assert.Equal(t, model.Debit, candidates[0].Type)

	assert.ErrorIs(t, f.orch.Open("1"), common.ErrNotFound)
}

func TestOrchestrator_PermissionDenied(t *testing.T) {
	f := newFixture(t, testutil.NewMessages().Credit("1", "10").Build())
	f.gate.checked = false
	f.gate.onRequest = false

	err := f.orch.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)
	assert.Equal(t, "Read access to messages was denied", common.UserMessage(err))

	assert.Equal(t, StatePermissionDenied, f.orch.State())
	assert.Equal(t, 1, f.gate.requests)
	assert.Zero(t, f.messages.lists)
	assert.Empty(t, f.orch.Candidates())
	assert.ErrorIs(t, f.orch.Open("1"), ErrNotReady)

	// Re-invoking after the user changes their mind runs the sequence again.
	f.gate.onRequest = true
	require.NoError(t, f.orch.Start(context.Background()))
	assert.Equal(t, StateIdle, f.orch.State())
	assert.Len(t, f.orch.Candidates(), 1)
}

func TestOrchestrator_PermissionRequestedWhenMissing(t *testing.T) {
	f := newFixture(t, testutil.NewMessages().Credit("1", "10").Build())
	f.gate.checked = false
	f.gate.onRequest = true

	f.start(t)
	assert.Equal(t, 1, f.gate.requests)
	assert.Equal(t, 1, f.messages.lists)
}

func TestOrchestrator_PermissionCheckError(t *testing.T) {
	f := newFixture(t, nil)
	f.gate.checkErr = errors.New("db locked")

	err := f.orch.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateAwaitingPermission, f.orch.State())
}

func TestOrchestrator_Cancel(t *testing.T) {
	f := newFixture(t, testutil.NewMessages().Credit("1", "10").Build())
	f.start(t)

	assert.ErrorIs(t, f.orch.Cancel(), review.ErrNoSession)

	require.NoError(t, f.orch.Open("1"))
	require.NoError(t, f.orch.UpdateTag("groceries"))
	require.NoError(t, f.orch.Cancel())

	assert.Equal(t, StateIdle, f.orch.State())
	assert.Empty(t, f.ledger.Calls())
	assert.Empty(t, f.messages.Deletes())

	candidates := f.orch.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, model.StatusPending, candidates[0].Status)
	assert.Empty(t, candidates[0].Tag)

	_, err := f.orch.Confirm(context.Background())
	assert.ErrorIs(t, err, review.ErrNoSession)
}

func TestOrchestrator_PruneFailureIsFailOpen(t *testing.T) {
	f := newFixture(t, testutil.NewMessages().Credit("1", "10").Credit("2", "20").Build())
	f.messages.deleteErr = errors.New("store refused")
	f.start(t)

	outcome, err := f.orch.Reconcile(context.Background(), "1", "salary")
	require.NoError(t, err)
	assert.True(t, outcome.Reconciled())
	assert.False(t, outcome.Pruned)
	assert.ErrorIs(t, outcome.PruneErr, common.ErrPruneFailed)

	// exactly one delete, no second submission
	assert.Equal(t, []string{"1"}, f.messages.Deletes())
	assert.Len(t, f.ledger.Calls(), 1)

	candidates := f.orch.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, "2", candidates[0].ID)
	assert.NoError(t, f.orch.LastError())

	records := f.journal(t)
	require.Len(t, records, 1)
	assert.False(t, records[0].Pruned)
}

func TestOrchestrator_AlreadyDeletedMessage(t *testing.T) {
	f := newFixture(t, testutil.NewMessages().Credit("1", "10").Build())
	f.start(t)
	require.NoError(t, f.inbox.Storage.Delete(context.Background(), "1"))

	outcome, err := f.orch.Reconcile(context.Background(), "1", "x")
	require.NoError(t, err)
	assert.ErrorIs(t, outcome.PruneErr, common.ErrNotFound)
	assert.Empty(t, f.orch.Candidates())
}

func TestOrchestrator_SingleActiveSession(t *testing.T) {
	f := newFixture(t, testutil.NewMessages().Credit("1", "10").Debit("2", "20").Build())
	f.start(t)

	require.NoError(t, f.orch.Open("1"))
	assert.ErrorIs(t, f.orch.Open("2"), review.ErrSessionActive)

	active := 0
	for _, c := range f.orch.Candidates() {
		if c.Status.IsActive() {
			active++
			assert.Equal(t, "1", c.ID)
		}
	}
	assert.Equal(t, 1, active)
}

func TestOrchestrator_BusyWhileSubmitting(t *testing.T) {
	f := newFixture(t, testutil.NewMessages().Credit("1", "10").Debit("2", "20").Build())
	release := make(chan struct{})
	entered := make(chan struct{})
	f.ledger.SubmitFunc = func(_ context.Context, c model.Candidate, _ string) (*service.Receipt, error) {
		close(entered)
		<-release
		return &service.Receipt{RequestID: "r-" + c.ID, Status: "success"}, nil
	}
	f.start(t)

	require.NoError(t, f.orch.Open("1"))
	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Confirm(context.Background())
		done <- err
	}()
	<-entered

	assert.Equal(t, StateSubmitting, f.orch.State())
	assert.ErrorIs(t, f.orch.Open("2"), ErrBusy)
	assert.ErrorIs(t, f.orch.UpdateTag("x"), ErrBusy)
	assert.ErrorIs(t, f.orch.Cancel(), ErrBusy)
	assert.ErrorIs(t, f.orch.Start(context.Background()), ErrBusy)
	_, err := f.orch.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	active, ok := f.orch.Active()
	require.True(t, ok)
	assert.Equal(t, model.StatusSubmitting, active.Status)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, f.orch.State())
	assert.Len(t, f.orch.Candidates(), 1)
}

func TestOrchestrator_SubmitTimeout(t *testing.T) {
	f := newFixture(t, testutil.NewMessages().Credit("1", "10").Build(), func(c *Config) {
		c.SubmitTimeout = 20 * time.Millisecond
	})
	f.ledger.SubmitFunc = func(ctx context.Context, _ model.Candidate, _ string) (*service.Receipt, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.start(t)

	outcome, err := f.orch.Reconcile(context.Background(), "1", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrReconciliationTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, model.OutcomeTransportError, outcome.Result)
	assert.Equal(t, StateIdle, f.orch.State())
	assert.Empty(t, f.messages.Deletes())
	assert.Equal(t, model.StatusFailed, f.orch.Candidates()[0].Status)
}

func TestOrchestrator_MissingReceiptIsNotSuccess(t *testing.T) {
	f := newFixture(t, testutil.NewMessages().Credit("1", "10").Build())
	f.ledger.SubmitFunc = func(context.Context, model.Candidate, string) (*service.Receipt, error) {
		return nil, nil
	}
	f.start(t)

	_, err := f.orch.Reconcile(context.Background(), "1", "x")
	assert.ErrorIs(t, err, common.ErrReconciliationTransport)
	assert.Empty(t, f.messages.Deletes())
}

func TestOrchestrator_JournalFailureIsLoggedOnly(t *testing.T) {
	f := newFixture(t, testutil.NewMessages().Credit("1", "10").Build(), func(c *Config) {
		c.Journal = failingJournal{}
	})
	f.start(t)

	outcome, err := f.orch.Reconcile(context.Background(), "1", "x")
	require.NoError(t, err)
	assert.True(t, outcome.Pruned)
}

func TestOrchestrator_CancelledCallerStillPrunes(t *testing.T) {
	f := newFixture(t, testutil.NewMessages().Credit("1", "10").Build())
	ctx, cancel := context.WithCancel(context.Background())
	f.ledger.SubmitFunc = func(context.Context, model.Candidate, string) (*service.Receipt, error) {
		cancel()
		return &service.Receipt{RequestID: "late", Status: "success"}, nil
	}
	f.start(t)

	outcome, err := f.orch.Reconcile(ctx, "1", "x")
	require.NoError(t, err)
	assert.True(t, outcome.Pruned)
	f.inbox.MustNotContain("1")
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

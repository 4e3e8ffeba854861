// Package engine sequences permission, fetch, extraction, annotation,
// reconciliation and pruning for one run.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/metrics"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
	"github.com/Veraticus/smsledger/internal/review"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/google/uuid"
)

// DefaultSubmitTimeout bounds one ledger submission.
const DefaultSubmitTimeout = 30 * time.Second

// State is the orchestrator's position in the run.
type State string

// Orchestrator states.
const (
	StateAwaitingPermission State = "AWAITING_PERMISSION"
	StatePermissionDenied   State = "PERMISSION_DENIED"
	StateFetching           State = "FETCHING"
	StateIdle               State = "IDLE"
	StateAnnotating         State = "ANNOTATING"
	StateSubmitting         State = "SUBMITTING"
)

// Orchestrator errors.
var (
	ErrBusy     = errors.New("a submission is in progress")
	ErrNotReady = errors.New("candidates have not been loaded")
)

// Config wires the orchestrator's collaborators. Journal and Metrics are
// optional.
type Config struct {
	Messages      service.MessageStore
	Permission    service.PermissionGate
	Ledger        service.Ledger
	Journal       service.Journal
	Metrics       *metrics.Recorder
	Logger        *slog.Logger
	Now           func() time.Time
	Box           string
	SubmitTimeout time.Duration
}

// Outcome describes one confirmed submission.
type Outcome struct {
	Receipt     *service.Receipt
	Err         error
	PruneErr    error
	CandidateID string
	RequestID   string
	Result      model.ReconciliationOutcome
	Pruned      bool
}

// Reconciled reports whether the ledger acknowledged the submission.
func (o *Outcome) Reconciled() bool {
	return o.Result == model.OutcomeReconciled
}

// Orchestrator owns the candidate store and annotation session for one run.
// It is safe for concurrent use; the ledger call runs without holding the
// lock and other mutations fail with ErrBusy meanwhile.
type Orchestrator struct {
	cfg     Config
	logger  *slog.Logger
	store   *review.Store
	session *review.Session
	pruner  *Pruner
	lastErr error
	state   State
	mu      sync.Mutex
}

// New creates an orchestrator in StateAwaitingPermission.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Messages == nil {
		return nil, fmt.Errorf("%w: message store", common.ErrMissingConfig)
	}
	if cfg.Permission == nil {
		return nil, fmt.Errorf("%w: permission gate", common.ErrMissingConfig)
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("%w: ledger", common.ErrMissingConfig)
	}
	if cfg.Box == "" {
		cfg.Box = model.DefaultBox
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	logger := common.LoggerOrDefault(cfg.Logger)
	return &Orchestrator{
		cfg:     cfg,
		logger:  logger,
		store:   review.NewStore(),
		session: review.NewSession(),
		pruner:  NewPruner(cfg.Messages, cfg.Metrics, logger),
		state:   StateAwaitingPermission,
	}, nil
}

// Start acquires read permission, fetches the box and loads the candidates.
// Calling it again from Idle or after a denial re-runs the whole sequence.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case StateAnnotating, StateSubmitting, StateFetching:
		return ErrBusy
	}
	o.state = StateAwaitingPermission

	granted, err := o.cfg.Permission.Check(ctx)
	if err != nil {
		return fmt.Errorf("failed to check message permission: %w", err)
	}
	if !granted {
		granted, err = o.cfg.Permission.Request(ctx)
		if err != nil {
			return fmt.Errorf("failed to request message permission: %w", err)
		}
	}
	if !granted {
		o.state = StatePermissionDenied
		o.store = review.NewStore()
		o.lastErr = common.NewUserError("Read access to messages was denied", common.ErrPermissionDenied)
		o.logger.Info("message permission denied")
		return o.lastErr
	}

	o.state = StateFetching
	msgs, err := o.cfg.Messages.List(ctx, o.cfg.Box)
	if err != nil {
		o.state = StateAwaitingPermission
		return fmt.Errorf("failed to fetch messages: %w", err)
	}

	candidates := pattern.Scan(msgs)
	store := review.NewStore()
	if err := store.Load(candidates); err != nil {
		o.state = StateAwaitingPermission
		return fmt.Errorf("failed to load candidates: %w", err)
	}
	o.cfg.Metrics.RecordScan(len(msgs), candidates)

	o.store = store
	o.state = StateIdle
	o.lastErr = nil
	o.logger.Info("loaded transaction candidates",
		"box", o.cfg.Box,
		"messages", len(msgs),
		"candidates", len(candidates))
	return nil
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastError returns the error shown to the user by the last failed step.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Candidates returns the visible candidates in fetch order. The open
// candidate, if any, is reported with its session status and tag.
func (o *Orchestrator) Candidates() []model.Candidate {
	o.mu.Lock()
	defer o.mu.Unlock()

	all := o.store.All()
	if active, ok := o.session.Active(); ok {
		for i := range all {
			if all[i].ID == active.ID {
				all[i] = active
			}
		}
	}
	return all
}

// Active returns the candidate open for annotation.
func (o *Orchestrator) Active() (model.Candidate, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.Active()
}

// Open starts annotating the candidate with id.
func (o *Orchestrator) Open(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case StateIdle:
	case StateAnnotating:
		return review.ErrSessionActive
	case StateSubmitting:
		return ErrBusy
	default:
		return ErrNotReady
	}

	c, ok := o.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: candidate %s", common.ErrNotFound, id)
	}
	if err := o.session.Open(c); err != nil {
		return err
	}
	o.state = StateAnnotating
	return nil
}

// UpdateTag replaces the tag of the open candidate.
func (o *Orchestrator) UpdateTag(text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateSubmitting {
		return ErrBusy
	}
	return o.session.UpdateTag(text)
}

// Cancel closes the open candidate without submitting anything.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateSubmitting {
		return ErrBusy
	}
	if !o.session.IsOpen() {
		return review.ErrNoSession
	}
	o.session.Close()
	o.state = StateIdle
	return nil
}

// Confirm submits the open candidate. On success the candidate is removed
// and its source message pruned; on failure it stays visible, marked FAILED,
// and the returned error is a common.UserError.
func (o *Orchestrator) Confirm(ctx context.Context) (*Outcome, error) {
	o.mu.Lock()
	if o.state == StateSubmitting {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	candidate, tag, err := o.session.BeginSubmit()
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}
	o.state = StateSubmitting
	o.mu.Unlock()

	started := o.cfg.Now()
	receipt, submitErr := o.submit(ctx, candidate, tag)
	took := o.cfg.Now().Sub(started)

	o.mu.Lock()
	defer o.mu.Unlock()

	// Bookkeeping after a decided submission must not be cut short by the caller.
	bg := context.WithoutCancel(ctx)

	outcome := &Outcome{
		CandidateID: candidate.ID,
		Receipt:     receipt,
		Err:         submitErr,
		RequestID:   requestIDOf(receipt, submitErr),
		Result:      classify(submitErr),
	}
	o.cfg.Metrics.RecordReconciliation(outcome.Result, took)
	o.journal(bg, candidate, tag, outcome, started)

	if submitErr != nil {
		o.store.MarkFailed(candidate.ID)
		o.session.Close()
		o.state = StateIdle
		o.lastErr = common.NewUserError(failureMessage(submitErr), submitErr)
		o.logger.Warn("reconciliation failed",
			"message_id", candidate.ID,
			"request_id", outcome.RequestID,
			"outcome", outcome.Result,
			"error", submitErr)
		return outcome, o.lastErr
	}

	o.store.Remove(candidate.ID)
	outcome.PruneErr = o.pruner.Prune(bg, candidate.ID)
	outcome.Pruned = outcome.PruneErr == nil
	if outcome.Pruned && o.cfg.Journal != nil {
		if err := o.cfg.Journal.MarkPruned(bg, outcome.RequestID); err != nil {
			o.logger.Warn("failed to mark journal entry pruned", "request_id", outcome.RequestID, "error", err)
		}
	}

	o.session.Close()
	o.state = StateIdle
	o.lastErr = nil
	o.logger.Info("reconciled transaction",
		"message_id", candidate.ID,
		"request_id", outcome.RequestID,
		"type", candidate.Type,
		"amount", candidate.Amount,
		"pruned", outcome.Pruned)
	return outcome, nil
}

// Reconcile runs one open, tag, confirm cycle for id.
func (o *Orchestrator) Reconcile(ctx context.Context, id, tag string) (*Outcome, error) {
	if err := o.Open(id); err != nil {
		return nil, err
	}
	if err := o.UpdateTag(tag); err != nil {
		_ = o.Cancel()
		return nil, err
	}
	return o.Confirm(ctx)
}

// submit calls the ledger under the submit timeout. Any error that is not
// already a reconciliation failure is reported as a transport failure, and a
// missing receipt never counts as success.
func (o *Orchestrator) submit(ctx context.Context, c model.Candidate, tag string) (*service.Receipt, error) {
	subCtx, cancel := context.WithTimeout(ctx, o.cfg.SubmitTimeout)
	defer cancel()

	receipt, err := o.cfg.Ledger.Submit(subCtx, c, tag)
	switch {
	case err != nil && !common.IsReconciliationFailure(err):
		return nil, fmt.Errorf("%w: %w", common.ErrReconciliationTransport, err)
	case err != nil:
		return nil, err
	case receipt == nil:
		return nil, fmt.Errorf("%w: ledger returned no receipt", common.ErrReconciliationTransport)
	}
	return receipt, nil
}

func (o *Orchestrator) journal(ctx context.Context, c model.Candidate, tag string, outcome *Outcome, at time.Time) {
	if o.cfg.Journal == nil {
		return
	}

	record := &model.ReconciliationRecord{
		AttemptedAt: at,
		RequestID:   outcome.RequestID,
		MessageID:   c.ID,
		Type:        c.Type,
		Amount:      c.Amount,
		Tags:        tag,
		Outcome:     outcome.Result,
	}
	if outcome.Err != nil {
		record.Detail = outcome.Err.Error()
	}

	if err := o.cfg.Journal.RecordReconciliation(ctx, record); err != nil {
		o.logger.Warn("failed to journal reconciliation", "request_id", outcome.RequestID, "error", err)
	}
}

func classify(err error) model.ReconciliationOutcome {
	switch {
	case err == nil:
		return model.OutcomeReconciled
	case errors.Is(err, common.ErrReconciliationRejected):
		return model.OutcomeRejected
	default:
		return model.OutcomeTransportError
	}
}

func failureMessage(err error) string {
	if errors.Is(err, common.ErrReconciliationRejected) {
		return "The ledger rejected this transaction"
	}
	return "Could not reach the ledger"
}

// requestIDOf finds the correlation id the ledger used, or makes one up so
// the journal entry stays unique.
func requestIDOf(receipt *service.Receipt, err error) string {
	if receipt != nil && receipt.RequestID != "" {
		return receipt.RequestID
	}
	var withID interface{ SubmissionID() string }
	if errors.As(err, &withID) && withID.SubmissionID() != "" {
		return withID.SubmissionID()
	}
	return uuid.NewString()
}

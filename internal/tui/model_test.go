package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/engine"
	"github.com/Veraticus/smsledger/internal/ledger"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/testutil"
)

type fakeReviewer struct {
	startErr   error
	confirmErr error
	opened     string
	tags       []string
	candidates []model.Candidate
	cancels    int
	starts     int
}

func (r *fakeReviewer) Start(context.Context) error {
	r.starts++
	return r.startErr
}

func (r *fakeReviewer) Candidates() []model.Candidate {
	return append([]model.Candidate(nil), r.candidates...)
}

func (r *fakeReviewer) Open(id string) error {
	r.opened = id
	return nil
}

func (r *fakeReviewer) UpdateTag(text string) error {
	r.tags = append(r.tags, text)
	return nil
}

func (r *fakeReviewer) Cancel() error {
	r.cancels++
	r.opened = ""
	return nil
}

func (r *fakeReviewer) Confirm(context.Context) (*engine.Outcome, error) {
	id := r.opened
	r.opened = ""
	if r.confirmErr != nil {
		for i := range r.candidates {
			if r.candidates[i].ID == id {
				r.candidates[i].Status = model.StatusFailed
			}
		}
		return &engine.Outcome{CandidateID: id}, r.confirmErr
	}
	for i, c := range r.candidates {
		if c.ID == id {
			r.candidates = append(r.candidates[:i], r.candidates[i+1:]...)
			break
		}
	}
	return &engine.Outcome{CandidateID: id, RequestID: "req-" + id, Result: model.OutcomeReconciled, Pruned: true}, nil
}

func newReviewer(ids ...string) *fakeReviewer {
	r := &fakeReviewer{}
	for _, id := range ids {
		r.candidates = append(r.candidates, model.NewCandidate(
			model.RawMessage{ID: id, Address: "BANK", Body: "credited for INR 1.00"}, model.Credit, "1.00"))
	}
	return r
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send applies msg and returns the resulting Model.
func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

// loaded runs the load command synchronously.
func loaded(t *testing.T, r Reviewer) Model {
	t.Helper()
	m := newModel(context.Background(), r, defaultConfig())
	msg := m.load()()
	m, _ = send(t, m, msg)
	return m
}

func TestModel_LoadShowsCandidates(t *testing.T) {
	r := newReviewer("1", "2")

	m := loaded(t, r)

	assert.Equal(t, StateList, m.State())
	assert.Equal(t, 1, r.starts)
	assert.Len(t, m.candidates, 2)
	assert.Contains(t, m.View(), "2 transaction(s) awaiting review")
}

func TestModel_LoadFailureBlocks(t *testing.T) {
	r := newReviewer("1")
	r.startErr = common.NewUserError("Read access to messages was denied", errors.New("denied"))

	m := loaded(t, r)

	assert.Equal(t, StateBlocked, m.State())
	assert.Contains(t, m.View(), "Read access to messages was denied")

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, r.opened)

	m, cmd = send(t, m, keyRunes("r"))
	assert.Equal(t, StateLoading, m.State())
	assert.NotNil(t, cmd)
}

func TestModel_AnnotateAndConfirm(t *testing.T) {
	r := newReviewer("1", "2")
	m := loaded(t, r)

	m, _ = send(t, m, keyRunes("j"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, StateTagging, m.State())
	assert.Equal(t, "2", r.opened)

	m, _ = send(t, m, keyRunes("q"))
	assert.Equal(t, StateTagging, m.State(), "q types into the tag field")
	assert.Equal(t, []string{"q"}, r.tags)

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, StateSubmitting, m.State())
	require.NotNil(t, cmd)

	m, _ = send(t, m, m.confirm()())

	assert.Equal(t, StateList, m.State())
	assert.Equal(t, 1, m.Reconciled())
	assert.Len(t, m.candidates, 1)
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.View(), "Added to ledger")
}

func TestModel_CancelReturnsToList(t *testing.T) {
	r := newReviewer("1")
	m := loaded(t, r)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, StateList, m.State())
	assert.Equal(t, 1, r.cancels)
	assert.Len(t, m.candidates, 1)
}

func TestModel_FailedSubmissionStaysVisible(t *testing.T) {
	r := newReviewer("1")
	r.confirmErr = common.NewUserError("Could not reach the ledger", common.ErrReconciliationTransport)
	m := loaded(t, r)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = send(t, m, m.confirm()())

	assert.Equal(t, StateList, m.State())
	assert.Zero(t, m.Reconciled())
	require.Len(t, m.candidates, 1)
	assert.Equal(t, model.StatusFailed, m.candidates[0].Status)
	view := m.View()
	assert.Contains(t, view, "Could not reach the ledger")
	assert.Contains(t, view, "failed, retry")
}

func TestModel_ForceQuitCancelsSession(t *testing.T) {
	r := newReviewer("1")
	m := loaded(t, r)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 1, r.cancels)
	assert.Empty(t, m.View())
}

func TestModel_CursorBounds(t *testing.T) {
	r := newReviewer("1", "2", "3")
	m := loaded(t, r)

	m, _ = send(t, m, keyRunes("k"))
	assert.Equal(t, 0, m.cursor)
	m, _ = send(t, m, keyRunes("G"))
	assert.Equal(t, 2, m.cursor)
	m, _ = send(t, m, keyRunes("j"))
	assert.Equal(t, 2, m.cursor)
	m, _ = send(t, m, keyRunes("g"))
	assert.Equal(t, 0, m.cursor)
}

func TestRun_RequiresReviewer(t *testing.T) {
	_, err := Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestModel_PreloadedSkipsStart(t *testing.T) {
	r := newReviewer("1", "2")
	cfg := defaultConfig()
	WithPreloaded()(&cfg)

	m := newModel(context.Background(), r, cfg)

	assert.Nil(t, m.Init())
	assert.Equal(t, StateList, m.State())
	assert.Zero(t, r.starts)
	assert.Len(t, m.candidates, 2)
}

func TestModel_PermissionSettledBeforeProgram(t *testing.T) {
	ctx := context.Background()
	inbox := testutil.SetupTestInbox(t, testutil.NewMessages().
		Credit("1", "2,500.00").
		Promo("2").
		Debit("3", "120.50").
		Build()...)

	var prompts bytes.Buffer
	gate := cli.NewPermissionGate(inbox.Storage, strings.NewReader("y\n"), &prompts, false, nil)
	orch, err := engine.New(engine.Config{
		Messages:   inbox.Storage,
		Permission: gate,
		Ledger:     ledger.NewMockLedger(),
	})
	require.NoError(t, err)
	require.NoError(t, orch.Start(ctx))
	require.Equal(t, 1, strings.Count(prompts.String(), "[y/N]"))

	cfg := defaultConfig()
	WithPreloaded()(&cfg)
	m := newModel(ctx, orch, cfg)
	assert.Nil(t, m.Init())
	require.Equal(t, StateList, m.State())
	require.Len(t, m.candidates, 2)

	// A refresh inside the program uses the stored decision.
	m, cmd := send(t, m, keyRunes("r"))
	require.NotNil(t, cmd)
	m, _ = send(t, m, m.load()())
	assert.Equal(t, StateList, m.State())
	assert.Len(t, m.candidates, 2)
	assert.Equal(t, 1, strings.Count(prompts.String(), "[y/N]"))
}

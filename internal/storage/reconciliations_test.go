package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(requestID, messageID string, outcome model.ReconciliationOutcome, at time.Time) *model.ReconciliationRecord {
	return &model.ReconciliationRecord{
		RequestID:   requestID,
		MessageID:   messageID,
		Type:        model.Credit,
		Amount:      "2,500.00",
		Tags:        "RENT",
		Outcome:     outcome,
		AttemptedAt: at,
	}
}

func TestRecordReconciliation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	first := testRecord("req-1", "42", model.OutcomeRejected, base)
	first.Detail = `status "error"`
	require.NoError(t, store.RecordReconciliation(ctx, first))
	assert.NotZero(t, first.ID)

	second := testRecord("req-2", "42", model.OutcomeReconciled, base.Add(time.Minute))
	require.NoError(t, store.RecordReconciliation(ctx, second))
	require.NoError(t, store.MarkPruned(ctx, "req-2"))

	records, err := store.ListReconciliations(ctx, service.JournalFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	// newest first
	assert.Equal(t, "req-2", records[0].RequestID)
	assert.Equal(t, model.OutcomeReconciled, records[0].Outcome)
	assert.True(t, records[0].Pruned)
	assert.Equal(t, model.Credit, records[0].Type)
	assert.Equal(t, "2,500.00", records[0].Amount)
	assert.True(t, records[0].AttemptedAt.Equal(base.Add(time.Minute)))

	assert.Equal(t, "req-1", records[1].RequestID)
	assert.False(t, records[1].Pruned)
	assert.Equal(t, `status "error"`, records[1].Detail)
}

func TestRecordReconciliation_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		record *model.ReconciliationRecord
		name   string
	}{
		{name: "nil record", record: nil},
		{name: "missing request id", record: testRecord("", "1", model.OutcomeRejected, now)},
		{name: "missing message id", record: testRecord("r", "", model.OutcomeRejected, now)},
		{name: "bad outcome", record: testRecord("r", "1", "MAYBE", now)},
		{name: "zero time", record: testRecord("r", "1", model.OutcomeRejected, time.Time{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, store.RecordReconciliation(ctx, tt.record))
		})
	}
}

func TestRecordReconciliation_DuplicateRequest(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.RecordReconciliation(ctx, testRecord("dup", "1", model.OutcomeRejected, time.Now())))
	err := store.RecordReconciliation(ctx, testRecord("dup", "1", model.OutcomeRejected, time.Now()))
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestMarkPruned_Unknown(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	err := store.MarkPruned(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListReconciliations_Filters(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordReconciliation(ctx, testRecord("a", "1", model.OutcomeRejected, base)))
	require.NoError(t, store.RecordReconciliation(ctx, testRecord("b", "1", model.OutcomeReconciled, base.Add(time.Hour))))
	require.NoError(t, store.RecordReconciliation(ctx, testRecord("c", "2", model.OutcomeTransportError, base.Add(2*time.Hour))))

	byMessage, err := store.ListReconciliations(ctx, service.JournalFilter{MessageID: "1"})
	require.NoError(t, err)
	assert.Len(t, byMessage, 2)

	byOutcome, err := store.ListReconciliations(ctx, service.JournalFilter{Outcome: model.OutcomeTransportError})
	require.NoError(t, err)
	require.Len(t, byOutcome, 1)
	assert.Equal(t, "c", byOutcome[0].RequestID)

	since := base.Add(30 * time.Minute)
	recent, err := store.ListReconciliations(ctx, service.JournalFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	limited, err := store.ListReconciliations(ctx, service.JournalFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c", limited[0].RequestID)
}

package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
)

// RecordReconciliation appends one attempt to the journal.
func (s *SQLiteStorage) RecordReconciliation(ctx context.Context, record *model.ReconciliationRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecord(record); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reconciliations
			(request_id, message_id, type, amount, tags, outcome, detail, pruned, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.RequestID,
		record.MessageID,
		string(record.Type),
		record.Amount,
		record.Tags,
		string(record.Outcome),
		record.Detail,
		record.Pruned,
		record.AttemptedAt.UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: request %s", common.ErrDuplicateEntry, record.RequestID)
		}
		return fmt.Errorf("failed to record reconciliation: %w", err)
	}

	if id, idErr := res.LastInsertId(); idErr == nil {
		record.ID = id
	}
	return nil
}

// MarkPruned flags the journal entry whose source message was deleted.
func (s *SQLiteStorage) MarkPruned(ctx context.Context, requestID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(requestID, "requestID"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE reconciliations SET pruned = 1 WHERE request_id = ?`, requestID)
	if err != nil {
		return fmt.Errorf("failed to mark pruned: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reconciliation %s: %w", requestID, common.ErrNotFound)
	}
	return nil
}

// ListReconciliations returns journal entries, newest first.
func (s *SQLiteStorage) ListReconciliations(ctx context.Context, filter service.JournalFilter) ([]model.ReconciliationRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, request_id, message_id, type, amount, tags, outcome, detail, pruned, attempted_at
		FROM reconciliations WHERE 1=1`
	var args []any

	if filter.MessageID != "" {
		query += ` AND message_id = ?`
		args = append(args, filter.MessageID)
	}
	if filter.Outcome != "" {
		query += ` AND outcome = ?`
		args = append(args, string(filter.Outcome))
	}
	if filter.Since != nil {
		query += ` AND attempted_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY attempted_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconciliations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.ReconciliationRecord
	for rows.Next() {
		var (
			r       model.ReconciliationRecord
			txnType string
			outcome string
		)
		if err := rows.Scan(&r.ID, &r.RequestID, &r.MessageID, &txnType, &r.Amount, &r.Tags,
			&outcome, &r.Detail, &r.Pruned, &r.AttemptedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reconciliation: %w", err)
		}
		r.Type = model.TransactionType(txnType)
		r.Outcome = model.ReconciliationOutcome(outcome)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reconciliations: %w", err)
	}
	return records, nil
}

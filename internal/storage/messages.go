package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

// SaveMessages inserts messages into box, skipping ids already present.
// Returns the number of new rows.
func (s *SQLiteStorage) SaveMessages(ctx context.Context, box string, msgs []model.RawMessage) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(box, "box"); err != nil {
		return 0, err
	}
	for i := range msgs {
		if err := validateMessage(&msgs[i]); err != nil {
			return 0, fmt.Errorf("message at index %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO messages (id, box, address, body)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, msg := range msgs {
		res, execErr := stmt.ExecContext(ctx, msg.ID, box, msg.Address, msg.Body)
		if execErr != nil {
			return 0, fmt.Errorf("failed to insert message %s: %w", msg.ID, execErr)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit messages: %w", err)
	}
	return inserted, nil
}

// List returns the messages in box in import order.
func (s *SQLiteStorage) List(ctx context.Context, box string) ([]model.RawMessage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(box, "box"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, address, body FROM messages
		WHERE box = ?
		ORDER BY seq
	`, box)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []model.RawMessage
	for rows.Next() {
		var msg model.RawMessage
		if err := rows.Scan(&msg.ID, &msg.Address, &msg.Body); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return msgs, nil
}

// GetMessage returns one message by id.
func (s *SQLiteStorage) GetMessage(ctx context.Context, id string) (*model.RawMessage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var msg model.RawMessage
	err := s.db.QueryRowContext(ctx, `SELECT id, address, body FROM messages WHERE id = ?`, id).
		Scan(&msg.ID, &msg.Address, &msg.Body)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("message %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

// Delete removes one message by id.
func (s *SQLiteStorage) Delete(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("message %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// CountMessages returns the number of messages in box.
func (s *SQLiteStorage) CountMessages(ctx context.Context, box string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE box = ?`, box).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ReadMessagesPermission is the capability required before reading the inbox.
const ReadMessagesPermission = "read_messages"

// PermissionState is a persisted permission decision.
type PermissionState struct {
	DecidedAt time.Time
	Decided   bool
	Granted   bool
}

// GetPermission returns the stored decision for name. An undecided
// permission is not an error.
func (s *SQLiteStorage) GetPermission(ctx context.Context, name string) (PermissionState, error) {
	if err := validateContext(ctx); err != nil {
		return PermissionState{}, err
	}
	if err := validateString(name, "name"); err != nil {
		return PermissionState{}, err
	}

	var state PermissionState
	err := s.db.QueryRowContext(ctx, `SELECT granted, decided_at FROM permissions WHERE name = ?`, name).
		Scan(&state.Granted, &state.DecidedAt)
	if err != nil {
		if isNoRows(err) {
			return PermissionState{}, nil
		}
		return PermissionState{}, fmt.Errorf("failed to get permission: %w", err)
	}
	state.Decided = true
	return state, nil
}

// SetPermission records a decision for name.
func (s *SQLiteStorage) SetPermission(ctx context.Context, name string, granted bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO permissions (name, granted, decided_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET granted = excluded.granted, decided_at = excluded.decided_at
	`, name, granted, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set permission: %w", err)
	}
	return nil
}

// ClearPermission forgets the decision for name so the next run asks again.
func (s *SQLiteStorage) ClearPermission(ctx context.Context, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM permissions WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to clear permission: %w", err)
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

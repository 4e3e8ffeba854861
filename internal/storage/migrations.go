package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the schema version this binary reads and writes.
const ExpectedSchemaVersion = 3

// Migration is one schema step. Statements run in order inside a single
// transaction together with the user_version bump.
type Migration struct {
	Description string
	Statements  []string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Inbox and permission tables",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS messages (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT UNIQUE NOT NULL,
				box TEXT NOT NULL DEFAULT 'inbox',
				address TEXT NOT NULL,
				body TEXT NOT NULL,
				received_at DATETIME,
				imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_box ON messages(box)`,
			`CREATE TABLE IF NOT EXISTS permissions (
				name TEXT PRIMARY KEY,
				granted INTEGER NOT NULL,
				decided_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
		},
	},
	{
		Version:     2,
		Description: "Reconciliation journal",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS reconciliations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				request_id TEXT UNIQUE NOT NULL,
				message_id TEXT NOT NULL,
				type TEXT NOT NULL,
				amount TEXT NOT NULL,
				tags TEXT NOT NULL DEFAULT '',
				outcome TEXT NOT NULL,
				detail TEXT NOT NULL DEFAULT '',
				pruned INTEGER NOT NULL DEFAULT 0,
				attempted_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reconciliations_message ON reconciliations(message_id)`,
		},
	},
	{
		Version:     3,
		Description: "Index journal by attempt time",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_reconciliations_attempted ON reconciliations(attempted_at)`,
		},
	},
}

// Migrate brings the schema up to ExpectedSchemaVersion. A database newer
// than this binary is rejected.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current > ExpectedSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, ExpectedSchemaVersion)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return err
		}
		slog.Info("Applied migration", "version", m.Version, "description", m.Description)
	}

	final, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if final != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, final)
	}
	return nil
}

func (s *SQLiteStorage) apply(ctx context.Context, m Migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// maxAutoSnapshots is how many automatic snapshots survive cleanup.
const maxAutoSnapshots = 5

// Snapshot errors.
var (
	ErrSnapshotNotFound    = errors.New("snapshot not found")
	ErrSnapshotExists      = errors.New("snapshot already exists")
	ErrSnapshotUnsupported = errors.New("snapshots require a file-backed database")
	ErrInvalidSnapshotID   = errors.New("invalid snapshot id")
)

// SnapshotInfo describes one copy of the inbox database kept before a
// destructive operation such as pruning reconciled messages.
type SnapshotInfo struct {
	CreatedAt       time.Time `json:"created_at"`
	ID              string    `json:"id"`
	Reason          string    `json:"reason"`
	Messages        int       `json:"messages"`
	Reconciliations int       `json:"reconciliations"`
	SchemaVersion   int       `json:"schema_version"`
	FileSize        int64     `json:"file_size"`
	IsAuto          bool      `json:"is_auto"`
}

// SnapshotManager writes and lists inbox snapshots next to the database file.
type SnapshotManager struct {
	store *SQLiteStorage
	dir   string
	now   func() time.Time
}

// NewSnapshotManager creates the snapshots directory beside the database.
func NewSnapshotManager(store *SQLiteStorage) (*SnapshotManager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store", ErrNilParameter)
	}
	if store.dbPath == memoryPath {
		return nil, ErrSnapshotUnsupported
	}

	dir := filepath.Join(filepath.Dir(store.dbPath), "snapshots")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}

	return &SnapshotManager{store: store, dir: dir, now: time.Now}, nil
}

// Dir returns the directory snapshots are written to.
func (m *SnapshotManager) Dir() string {
	return m.dir
}

// Create copies the live database into a new snapshot.
func (m *SnapshotManager) Create(ctx context.Context, id, reason string) (*SnapshotInfo, error) {
	return m.create(ctx, id, reason, false)
}

// Auto takes an automatic snapshot and trims old automatic ones.
func (m *SnapshotManager) Auto(ctx context.Context, reason string) (*SnapshotInfo, error) {
	id := fmt.Sprintf("auto-%s-%s", reason, m.now().UTC().Format("20060102-150405"))
	info, err := m.create(ctx, id, "automatic snapshot before "+reason, true)
	if err != nil {
		return nil, err
	}

	if err := m.cleanupAuto(ctx); err != nil {
		slog.Warn("failed to clean up old snapshots", "error", err)
	}
	return info, nil
}

func (m *SnapshotManager) create(ctx context.Context, id, reason string, auto bool) (*SnapshotInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if id == "" {
		id = "snapshot-" + m.now().UTC().Format("20060102-150405")
	}
	if err := validateSnapshotID(id); err != nil {
		return nil, err
	}

	dbFile := m.dbFile(id)
	if _, err := os.Stat(dbFile); err == nil {
		return nil, ErrSnapshotExists
	}

	version, err := m.store.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}

	info := &SnapshotInfo{
		ID:            id,
		CreatedAt:     m.now(),
		Reason:        reason,
		SchemaVersion: version,
		IsAuto:        auto,
	}
	if err := m.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&info.Messages); err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}
	if err := m.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reconciliations`).Scan(&info.Reconciliations); err != nil {
		return nil, fmt.Errorf("failed to count reconciliations: %w", err)
	}

	// VACUUM INTO takes the path as a bound parameter, so no quoting is needed.
	if _, err := m.store.db.ExecContext(ctx, `VACUUM INTO ?`, dbFile); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	stat, err := os.Stat(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	info.FileSize = stat.Size()

	if err := m.writeMeta(*info); err != nil {
		if rmErr := os.Remove(dbFile); rmErr != nil {
			slog.Error("failed to remove snapshot after metadata failure", "error", rmErr)
		}
		return nil, err
	}

	slog.Debug("Created snapshot", "id", id, "messages", info.Messages)
	return info, nil
}

// List returns all snapshots, newest first. Unreadable metadata is skipped.
func (m *SnapshotManager) List(_ context.Context) ([]SnapshotInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots directory: %w", err)
	}

	snapshots := make([]SnapshotInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := m.readMeta(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			slog.Debug("skipping unreadable snapshot metadata", "file", entry.Name(), "error", err)
			continue
		}
		snapshots = append(snapshots, *info)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})
	return snapshots, nil
}

// Delete removes a snapshot and its metadata.
func (m *SnapshotManager) Delete(_ context.Context, id string) error {
	if err := validateSnapshotID(id); err != nil {
		return err
	}
	if err := os.Remove(m.dbFile(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrSnapshotNotFound
		}
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	if err := os.Remove(m.metaFile(id)); err != nil && !os.IsNotExist(err) {
		slog.Debug("failed to remove snapshot metadata", "id", id, "error", err)
	}
	return nil
}

// Path returns the database file for a snapshot, verifying it exists.
func (m *SnapshotManager) Path(id string) (string, error) {
	if err := validateSnapshotID(id); err != nil {
		return "", err
	}
	path := m.dbFile(id)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrSnapshotNotFound
		}
		return "", err
	}
	return path, nil
}

func (m *SnapshotManager) cleanupAuto(ctx context.Context) error {
	snapshots, err := m.List(ctx)
	if err != nil {
		return err
	}

	kept := 0
	for _, s := range snapshots {
		if !s.IsAuto {
			continue
		}
		kept++
		if kept <= maxAutoSnapshots {
			continue
		}
		if err := m.Delete(ctx, s.ID); err != nil {
			slog.Debug("failed to delete old snapshot", "id", s.ID, "error", err)
		}
	}
	return nil
}

func (m *SnapshotManager) dbFile(id string) string {
	return filepath.Join(m.dir, id+".db")
}

func (m *SnapshotManager) metaFile(id string) string {
	return filepath.Join(m.dir, id+".meta.json")
}

func (m *SnapshotManager) writeMeta(info SnapshotInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot metadata: %w", err)
	}
	tmp := m.metaFile(info.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot metadata: %w", err)
	}
	return os.Rename(tmp, m.metaFile(info.ID))
}

func (m *SnapshotManager) readMeta(path string) (*SnapshotInfo, error) {
	// #nosec G304 - path is built from the snapshots directory listing
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info SnapshotInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func validateSnapshotID(id string) error {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidSnapshotID, id)
	}
	return nil
}

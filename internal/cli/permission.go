package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/storage"
)

// PermissionStore persists permission decisions.
type PermissionStore interface {
	GetPermission(ctx context.Context, name string) (storage.PermissionState, error)
	SetPermission(ctx context.Context, name string, granted bool) error
}

// PermissionGate asks the user for inbox read access once and remembers
// the answer.
type PermissionGate struct {
	store     PermissionStore
	reader    *NonBlockingReader
	writer    io.Writer
	logger    *slog.Logger
	assumeYes bool
}

// NewPermissionGate creates a gate. With assumeYes the request is granted
// without prompting.
func NewPermissionGate(store PermissionStore, r io.Reader, w io.Writer, assumeYes bool, logger *slog.Logger) *PermissionGate {
	return NewPermissionGateFromReader(store, NewNonBlockingReader(r), w, assumeYes, logger)
}

// NewPermissionGateFromReader creates a gate that reads its answer from r.
// Share r with any later prompt on the same input so buffered lines are not
// lost between them.
func NewPermissionGateFromReader(store PermissionStore, r *NonBlockingReader, w io.Writer, assumeYes bool, logger *slog.Logger) *PermissionGate {
	return &PermissionGate{
		store:     store,
		reader:    r,
		writer:    w,
		assumeYes: assumeYes,
		logger:    common.LoggerOrDefault(logger),
	}
}

// Check reports whether access was previously granted.
func (g *PermissionGate) Check(ctx context.Context) (bool, error) {
	state, err := g.store.GetPermission(ctx, storage.ReadMessagesPermission)
	if err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}
	return state.Decided && state.Granted, nil
}

// Request prompts for access and stores the decision.
func (g *PermissionGate) Request(ctx context.Context) (bool, error) {
	granted := g.assumeYes
	if !granted {
		var err error
		granted, err = g.reader.Confirm(ctx, g.writer, "Allow smsledger to read and delete messages in your inbox?")
		if err != nil {
			return false, err
		}
	}

	if err := g.store.SetPermission(ctx, storage.ReadMessagesPermission, granted); err != nil {
		return false, fmt.Errorf("failed to store permission: %w", err)
	}
	g.logger.Info("permission decided", "permission", storage.ReadMessagesPermission, "granted", granted)
	return granted, nil
}

package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/metrics"
	"github.com/Veraticus/smsledger/internal/service"
)

// Pruner deletes source messages after their reconciliation succeeded.
// A failed delete is logged and counted, never retried or reversed.
type Pruner struct {
	messages service.MessageStore
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

// NewPruner creates a Pruner. rec may be nil.
func NewPruner(messages service.MessageStore, rec *metrics.Recorder, logger *slog.Logger) *Pruner {
	return &Pruner{
		messages: messages,
		metrics:  rec,
		logger:   common.LoggerOrDefault(logger),
	}
}

// Prune issues exactly one delete for id. The returned error wraps
// common.ErrPruneFailed and is informational only.
func (p *Pruner) Prune(ctx context.Context, id string) error {
	err := p.messages.Delete(ctx, id)
	p.metrics.RecordPrune(err)

	if err != nil {
		p.logger.Warn("failed to prune reconciled message", "message_id", id, "error", err)
		return fmt.Errorf("%w: message %s: %w", common.ErrPruneFailed, id, err)
	}

	p.logger.Debug("pruned reconciled message", "message_id", id)
	return nil
}

package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/service"
)

// New returns the ledger backend selected by config.Backend.
func New(ctx context.Context, config Config, logger *slog.Logger) (service.Ledger, error) {
	switch strings.ToLower(config.Backend) {
	case BackendWebhook, "":
		return NewWebhookLedger(config, nil, logger)
	case BackendSheets:
		return NewSheetsLedger(ctx, config.Sheets, logger)
	default:
		return nil, fmt.Errorf("%w: unknown ledger backend %q", common.ErrInvalidConfig, config.Backend)
	}
}

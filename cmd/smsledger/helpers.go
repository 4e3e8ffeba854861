package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/config"
	"github.com/Veraticus/smsledger/internal/engine"
	"github.com/Veraticus/smsledger/internal/ledger"
	"github.com/Veraticus/smsledger/internal/metrics"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/Veraticus/smsledger/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initStorage opens the inbox database and runs migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// addBoxFlag registers the --box flag shared by inbox commands.
func addBoxFlag(cmd *cobra.Command) {
	cmd.Flags().String("box", "inbox", "message box to read")
}

// addYesFlag registers --yes for granting inbox access without a prompt.
func addYesFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("yes", "y", false, "grant inbox read access without prompting")
}

// newOrchestrator wires the ledger client, permission gate and metrics
// around store. The ledger is only required when needLedger is set. The
// permission prompt reads from input, or from the command's stdin when
// input is nil.
func newOrchestrator(cmd *cobra.Command, store *storage.SQLiteStorage, needLedger bool, input *cli.NonBlockingReader) (*engine.Orchestrator, error) {
	ctx := cmd.Context()
	logger := slog.Default()

	box, _ := cmd.Flags().GetString("box")
	assumeYes, _ := cmd.Flags().GetBool("yes")
	if input == nil {
		input = cli.NewNonBlockingReader(cmd.InOrStdin())
	}

	cfg := engine.Config{
		Messages:   store,
		Permission: cli.NewPermissionGateFromReader(store, input, cmd.OutOrStdout(), assumeYes, logger),
		Journal:    store,
		Metrics:    metrics.NewRecorder(),
		Logger:     logger,
		Box:        box,
	}

	if needLedger {
		ledgerCfg, err := config.LoadLedgerConfig()
		if err != nil {
			return nil, common.NewUserError("The ledger is not configured. Set ledger.endpoint, or ledger.backend=sheets with the sheets.* keys", err)
		}
		client, err := ledger.New(ctx, *ledgerCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create ledger client: %w", err)
		}
		cfg.Ledger = client
		cfg.SubmitTimeout = ledgerCfg.Timeout
	} else {
		cfg.Ledger = noLedger{}
	}

	startMetrics(ctx, cfg.Metrics)
	return engine.New(cfg)
}

// noLedger backs read-only commands that never submit.
type noLedger struct{}

func (noLedger) Submit(context.Context, model.Candidate, string) (*service.Receipt, error) {
	return nil, errors.New("read-only command cannot submit")
}

// startMetrics serves /metrics when metrics.addr is set.
func startMetrics(ctx context.Context, rec *metrics.Recorder) {
	addr := viper.GetString("metrics.addr")
	if addr == "" {
		return
	}
	go func() {
		if err := rec.Serve(ctx, addr); err != nil {
			slog.Warn("Metrics server stopped", "addr", addr, "error", err)
		}
	}()
	slog.Info("Serving metrics", "addr", addr)
}

// autoSnapshot copies the database before messages are pruned. Failures are
// logged and never block the run.
func autoSnapshot(ctx context.Context, store *storage.SQLiteStorage, reason string) {
	if viper.IsSet("snapshots.auto") && !viper.GetBool("snapshots.auto") {
		return
	}
	manager, err := storage.NewSnapshotManager(store)
	if err != nil {
		if !errors.Is(err, storage.ErrSnapshotUnsupported) {
			slog.Warn("Snapshots unavailable", "error", err)
		}
		return
	}
	info, err := manager.Auto(ctx, reason)
	if err != nil {
		slog.Warn("Failed to create automatic snapshot", "reason", reason, "error", err)
		return
	}
	slog.Debug("Created automatic snapshot", "id", info.ID)
}

// saveConfig writes the current viper settings back to the config file.
func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configFile = filepath.Join(home, ".config", "smsledger", "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0750); err != nil {
		return err
	}

	return viper.WriteConfigAs(configFile)
}

// openBrowser tries to open the URL in the default browser.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("xdg-open", url).Start() //nolint:gosec
	case "darwin":
		return exec.Command("open", url).Start() //nolint:gosec
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start() //nolint:gosec
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		if m := int(duration.Minutes()); m != 1 {
			return fmt.Sprintf("%d minutes ago", m)
		}
		return "1 minute ago"
	case duration < 24*time.Hour:
		if h := int(duration.Hours()); h != 1 {
			return fmt.Sprintf("%d hours ago", h)
		}
		return "1 hour ago"
	case duration < 7*24*time.Hour:
		if d := int(duration.Hours() / 24); d != 1 {
			return fmt.Sprintf("%d days ago", d)
		}
		return "yesterday"
	default:
		return t.Format("2006-01-02 15:04")
	}
}

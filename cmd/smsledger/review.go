package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/engine"
	"github.com/Veraticus/smsledger/internal/tui"
	"github.com/Veraticus/smsledger/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Tag transactions and send them to the ledger",
		Long: `Open the inbox review. Pick a transaction, give it a tag and confirm to send
it to the ledger. Confirmed messages are deleted from the inbox; cancelled
ones stay for later.`,
		RunE: runReview,
	}

	addBoxFlag(cmd)
	addYesFlag(cmd)
	cmd.Flags().Bool("plain", false, "use the line-based prompter instead of the full-screen interface")

	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	plain, _ := cmd.Flags().GetBool("plain")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// The permission prompt and the review loop read the same lines.
	input := cli.NewNonBlockingReader(cmd.InOrStdin())
	orch, err := newOrchestrator(cmd, store, true, input)
	if err != nil {
		return err
	}

	autoSnapshot(ctx, store, "review")

	if !plain {
		return runReviewTUI(ctx, orch, out)
	}

	interrupts := cli.NewInterruptHandler(out)
	ctx = interrupts.HandleInterrupts(ctx)

	if err := orch.Start(ctx); err != nil {
		return err
	}

	prompter := cli.NewReviewPrompterFromReader(input, out)
	runErr := prompter.Run(ctx, orch)
	if interrupts.WasInterrupted() {
		return nil
	}
	prompter.PrintSummary()
	return runErr
}

// runReviewTUI settles permission on the plain terminal before the
// full-screen program puts it in raw mode.
func runReviewTUI(ctx context.Context, orch *engine.Orchestrator, out io.Writer) error {
	if err := orch.Start(ctx); err != nil {
		return err
	}

	res, err := tui.Run(ctx, orch,
		tui.WithTheme(themes.ByName(viper.GetString("tui.theme"))),
		tui.WithPreloaded(),
	)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Reconciled %d transaction(s).", res.Reconciled)))
	return nil
}

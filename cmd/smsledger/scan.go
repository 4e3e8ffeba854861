package main

import (
	"fmt"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/spf13/cobra"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List transaction messages found in the inbox",
		Long: `Read the inbox and print every message that announces a credit or debit in
INR, with running totals. Nothing is sent or deleted.`,
		RunE: runScan,
	}

	addBoxFlag(cmd)
	addYesFlag(cmd)

	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	orch, err := newOrchestrator(cmd, store, false, nil)
	if err != nil {
		return err
	}
	if err := orch.Start(ctx); err != nil {
		return err
	}

	candidates := orch.Candidates()
	fmt.Fprintln(out, cli.FormatTitle("Transactions in inbox"))
	fmt.Fprintln(out, cli.RenderCandidateTable(candidates))
	if len(candidates) == 0 {
		return nil
	}

	totals := model.SumAmounts(candidates)
	fmt.Fprintf(out, "%s  %s\n",
		cli.CreditStyle.Render("Credited: INR "+totals.Credited.StringFixed(2)),
		cli.DebitStyle.Render("Debited: INR "+totals.Debited.StringFixed(2)))
	if totals.Skipped > 0 {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d amount(s) could not be summed", totals.Skipped)))
	}
	return nil
}

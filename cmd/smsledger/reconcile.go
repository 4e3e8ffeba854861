package main

import (
	"fmt"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/common"
	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile <message-id>",
		Short: "Send one transaction to the ledger without prompting",
		Example: `  smsledger reconcile 1042 --tag groceries --yes`,
		Args:  cobra.ExactArgs(1),
		RunE:  runReconcile,
	}

	addBoxFlag(cmd)
	addYesFlag(cmd)
	cmd.Flags().StringP("tag", "t", "", "tag recorded with the transaction")

	return cmd
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	tag, _ := cmd.Flags().GetString("tag")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	orch, err := newOrchestrator(cmd, store, true, nil)
	if err != nil {
		return err
	}
	if err := orch.Start(ctx); err != nil {
		return err
	}

	autoSnapshot(ctx, store, "reconcile")

	outcome, err := orch.Reconcile(ctx, args[0], tag)
	if err != nil {
		if outcome != nil && outcome.RequestID != "" {
			fmt.Fprintln(out, cli.FormatError(common.UserMessage(err)+" (request "+outcome.RequestID+")"))
		}
		return err
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Message %s added to ledger (request %s)", outcome.CandidateID, outcome.RequestID)))
	if outcome.PruneErr != nil {
		fmt.Fprintln(out, cli.FormatWarning("The message could not be deleted from the inbox."))
	}
	return nil
}

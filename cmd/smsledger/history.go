package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past reconciliation attempts",
		Example: `  # Last 20 attempts
  smsledger history

  # Failed attempts from the last week
  smsledger history --outcome rejected --since 168h`,
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", 20, "maximum number of entries")
	cmd.Flags().String("message", "", "only entries for this message id")
	cmd.Flags().String("outcome", "", "only entries with this outcome (reconciled, rejected, transport_error)")
	cmd.Flags().Duration("since", 0, "only entries newer than this duration")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	filter := service.JournalFilter{}
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	filter.MessageID, _ = cmd.Flags().GetString("message")
	if o, _ := cmd.Flags().GetString("outcome"); o != "" {
		outcome, err := parseOutcome(o)
		if err != nil {
			return err
		}
		filter.Outcome = outcome
	}
	if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
		t := time.Now().Add(-since)
		filter.Since = &t
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.ListReconciliations(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list reconciliations: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, cli.SubtleStyle.Render("No reconciliations recorded."))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tMESSAGE\tTYPE\tAMOUNT\tTAG\tOUTCOME\tPRUNED\tREQUEST")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			formatRelativeTime(r.AttemptedAt),
			r.MessageID,
			r.Type,
			r.Amount,
			r.Tags,
			formatOutcome(r.Outcome),
			yesNo(r.Pruned),
			r.RequestID)
	}
	return w.Flush()
}

func parseOutcome(s string) (model.ReconciliationOutcome, error) {
	switch o := model.ReconciliationOutcome(strings.ToUpper(s)); o {
	case model.OutcomeReconciled, model.OutcomeRejected, model.OutcomeTransportError:
		return o, nil
	default:
		return "", fmt.Errorf("unknown outcome %q", s)
	}
}

func formatOutcome(o model.ReconciliationOutcome) string {
	switch o {
	case model.OutcomeReconciled:
		return "reconciled"
	case model.OutcomeRejected:
		return "rejected"
	default:
		return "unreachable"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

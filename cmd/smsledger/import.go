package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/inbox"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// importBatchSize is how many messages are written per transaction.
const importBatchSize = 200

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an SMS dump into the local inbox",
		Long: `Load a JSON SMS list, as exported from an Android inbox, into the local
message store. Use "-" to read from stdin. Messages already present are skipped.`,
		Example: `  # Import a dump exported from the phone
  smsledger import sms.json

  # Import into a different box
  smsledger import --box sent sent.json`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	addBoxFlag(cmd)
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	box, _ := cmd.Flags().GetString("box")
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	out := cmd.OutOrStdout()

	in := cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return common.NewUserError(fmt.Sprintf("Cannot open %s", args[0]), err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	msgs, err := inbox.Decode(in)
	if err != nil {
		return common.NewUserError("The file is not a valid SMS dump", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var bar *progressbar.ProgressBar
	if !noProgress {
		bar = cli.NewProgressBar(len(msgs), out, "Importing messages")
	}

	inserted := 0
	for start := 0; start < len(msgs); start += importBatchSize {
		end := min(start+importBatchSize, len(msgs))
		n, err := store.SaveMessages(ctx, box, msgs[start:end])
		if err != nil {
			return fmt.Errorf("failed to save messages: %w", err)
		}
		inserted += n
		if bar != nil {
			_ = bar.Add(end - start)
		}
	}

	slog.Info("Imported messages", "box", box, "read", len(msgs), "new", inserted)
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d new message(s) into %q (%d skipped)", inserted, box, len(msgs)-inserted)))
	return nil
}

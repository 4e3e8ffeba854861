package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/storage"
	"github.com/spf13/cobra"
)

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage inbox database snapshots",
		Long: `Snapshots are copies of the inbox database. One is taken automatically
before each review, since confirmed messages are deleted.`,
		Example: `  smsledger snapshot create before-cleanup
  smsledger snapshot list
  smsledger snapshot delete before-cleanup`,
	}

	cmd.AddCommand(createSnapshotCmd())
	cmd.AddCommand(listSnapshotsCmd())
	cmd.AddCommand(deleteSnapshotCmd())

	return cmd
}

func withSnapshots(cmd *cobra.Command, fn func(*storage.SnapshotManager) error) error {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	manager, err := storage.NewSnapshotManager(store)
	if err != nil {
		return fmt.Errorf("failed to open snapshots: %w", err)
	}
	return fn(manager)
}

func createSnapshotCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "create <id>",
		Short: "Create a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSnapshots(cmd, func(m *storage.SnapshotManager) error {
				info, err := m.Create(cmd.Context(), args[0], reason)
				if err != nil {
					if errors.Is(err, storage.ErrSnapshotExists) {
						return common.NewUserError(fmt.Sprintf("Snapshot %q already exists", args[0]), err)
					}
					return fmt.Errorf("failed to create snapshot: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Created snapshot %s (%s, %d messages)", info.ID, formatFileSize(info.FileSize), info.Messages)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "manual", "why the snapshot was taken")

	return cmd
}

func listSnapshotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSnapshots(cmd, func(m *storage.SnapshotManager) error {
				snapshots, err := m.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list snapshots: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(snapshots) == 0 {
					fmt.Fprintln(out, cli.SubtleStyle.Render("No snapshots found."))
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tCREATED\tSIZE\tMESSAGES\tJOURNAL\tTYPE")
				for _, s := range snapshots {
					kind := "manual"
					if s.IsAuto {
						kind = "auto"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
						s.ID, formatRelativeTime(s.CreatedAt), formatFileSize(s.FileSize), s.Messages, s.Reconciliations, kind)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintln(out, cli.SubtleStyle.Render("Stored in "+m.Dir()))
				return nil
			})
		},
	}
}

func deleteSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSnapshots(cmd, func(m *storage.SnapshotManager) error {
				if err := m.Delete(cmd.Context(), args[0]); err != nil {
					if errors.Is(err, storage.ErrSnapshotNotFound) {
						return common.NewUserError(fmt.Sprintf("No snapshot named %q", args[0]), err)
					}
					return fmt.Errorf("failed to delete snapshot: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted snapshot "+args[0]))
				return nil
			})
		},
	}
}

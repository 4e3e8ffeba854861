package main

import (
	"fmt"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/storage"
	"github.com/spf13/cobra"
)

func permissionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permission",
		Short: "Manage inbox read access",
		Long: `smsledger asks once before reading and deleting inbox messages and remembers
the answer. These commands change or show that decision.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "grant",
		Short: "Allow reading the inbox",
		RunE:  func(cmd *cobra.Command, _ []string) error { return setPermission(cmd, true) },
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "deny",
		Short: "Refuse reading the inbox",
		RunE:  func(cmd *cobra.Command, _ []string) error { return setPermission(cmd, false) },
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "revoke",
		Short: "Forget the decision so the next run asks again",
		RunE:  runRevokePermission,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current decision",
		RunE:  runPermissionStatus,
	})

	return cmd
}

func setPermission(cmd *cobra.Command, granted bool) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SetPermission(ctx, storage.ReadMessagesPermission, granted); err != nil {
		return err
	}
	if granted {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Inbox access granted."))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Inbox access denied."))
	}
	return nil
}

func runRevokePermission(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.ClearPermission(ctx, storage.ReadMessagesPermission); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Inbox access decision cleared."))
	return nil
}

func runPermissionStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	state, err := store.GetPermission(ctx, storage.ReadMessagesPermission)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case !state.Decided:
		fmt.Fprintln(out, cli.FormatInfo("Inbox access: not decided (you will be asked)"))
	case state.Granted:
		fmt.Fprintln(out, cli.FormatSuccess("Inbox access: granted "+formatRelativeTime(state.DecidedAt)))
	default:
		fmt.Fprintln(out, cli.FormatWarning("Inbox access: denied "+formatRelativeTime(state.DecidedAt)))
	}
	return nil
}

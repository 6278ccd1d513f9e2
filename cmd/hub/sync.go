package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewSyncCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Commit local changes and sync with the remote",
		Long:  `Stage and commit everything in the storage root, then pull with rebase and push when remote sync is enabled.`,
		Args:  cobra.NoArgs,
		RunE:  makeSyncRunner(a),
	}

	return cmd
}

func makeSyncRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if err := a.syncer().Sync(cmd.Context(), a.cfg.Git); err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Sync complete")
		return nil
	}
}

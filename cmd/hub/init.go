package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Initialize the storage directory",
		Long:  `Create the storage directory and the authoritative record file. With a path argument the configured storage root is updated to point there.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeInitRunner(a),
	}

	cmd.Flags().Bool("git", false, "Also initialize a git repository in the storage root")
	return cmd
}

func makeInitRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			a.cfg.StoragePath = args[0]
			if err := a.saveConfig(); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
		}

		store, err := a.openStore()
		if err != nil {
			return err
		}

		withGit, _ := cmd.Flags().GetBool("git")
		if withGit {
			if err := a.syncer().EnsureRepository(cmd.Context()); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized storage at %s (%d records)\n",
			store.Root(), len(store.List()))
		return nil
	}
}

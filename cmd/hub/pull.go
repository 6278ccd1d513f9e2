package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewPullCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Pull remote changes with rebase",
		Args:  cobra.NoArgs,
		RunE:  makePullRunner(a),
	}

	return cmd
}

func makePullRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if err := a.syncer().PullRebase(cmd.Context()); err != nil {
			return err
		}
		if _, err := a.openStore(); err != nil {
			return fmt.Errorf("reload store after pull: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Pulled")
		return nil
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewPushCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push local commits to the remote",
		Args:  cobra.NoArgs,
		RunE:  makePushRunner(a),
	}

	return cmd
}

func makePushRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if err := a.syncer().Push(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Pushed")
		return nil
	}
}

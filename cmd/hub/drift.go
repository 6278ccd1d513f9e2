package main

import (
	"fmt"

	"github.com/prompthub/prompthub/internal"
	"github.com/spf13/cobra"
)

func NewDriftCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drift [name]",
		Short: "Show records whose documents have diverged",
		Long:  `Compare records' stored content with the bodies of their backing documents and report mismatches. With a name (or id), check just that record.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeDriftRunner(a),
	}

	cmd.Flags().Bool("diff", false, "Print a diff for each diverged record")
	return cmd
}

func makeDriftRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := a.openStore()
		if err != nil {
			return err
		}

		records := store.List()
		if len(args) == 1 {
			rec, ok := lookupRecord(store, args[0], false)
			if !ok {
				return fmt.Errorf("drift %q: %w", args[0], internal.ErrRecordNotFound)
			}
			records = []internal.Record{rec}
		}

		report := internal.DriftReport(records)
		if len(report) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "All records in sync")
			return nil
		}

		showDiff, _ := cmd.Flags().GetBool("diff")
		for _, d := range report {
			fmt.Fprintln(cmd.OutOrStdout(), d.String())
			if showDiff && d.Diff != "" {
				fmt.Fprintln(cmd.OutOrStdout(), d.Diff)
			}
		}
		return nil
	}
}

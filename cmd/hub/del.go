package main

import (
	"fmt"

	"github.com/prompthub/prompthub/internal"
	"github.com/spf13/cobra"
)

func NewDelCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "del <name>",
		Short: "Delete a record",
		Long:  `Delete a record by name (or id with --id). The backing document, if any, is removed as well.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeDelRunner(a),
	}

	cmd.Flags().Bool("id", false, "Look up by record id instead of name")
	return cmd
}

func makeDelRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := a.openStore()
		if err != nil {
			return err
		}

		byID, _ := cmd.Flags().GetBool("id")
		rec, ok := lookupRecord(store, args[0], byID)
		if !ok {
			return fmt.Errorf("del %q: %w", args[0], internal.ErrRecordNotFound)
		}

		removed, _, err := store.Remove(rec.ID)
		if err != nil {
			return fmt.Errorf("del %q: %w", args[0], err)
		}

		if removed.SourceDocument != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s and %s\n", removed.Name, removed.SourceDocument)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", removed.Name)
		return nil
	}
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/prompthub/prompthub/internal"
	"github.com/spf13/cobra"
)

func NewGetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Print a record's content",
		Long:  `Look a record up by name (or id with --id) and print its content.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeGetRunner(a),
	}

	cmd.Flags().Bool("id", false, "Look up by record id instead of name")
	return cmd
}

func makeGetRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := a.openStore()
		if err != nil {
			return err
		}

		byID, _ := cmd.Flags().GetBool("id")
		rec, ok := lookupRecord(store, args[0], byID)
		if !ok {
			return fmt.Errorf("get %q: %w", args[0], internal.ErrRecordNotFound)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}

		fmt.Fprintln(cmd.OutOrStdout(), rec.Content)
		return nil
	}
}

func lookupRecord(store *internal.Store, key string, byID bool) (internal.Record, bool) {
	if byID {
		return store.GetByID(key)
	}
	if rec, ok := store.GetByName(key); ok {
		return rec, true
	}
	// Fall back to id lookup so bare ids still resolve.
	return store.GetByID(key)
}

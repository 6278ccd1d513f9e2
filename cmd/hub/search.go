package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func NewSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search records by name, content and tags",
		Args:  cobra.ExactArgs(1),
		RunE:  makeSearchRunner(a),
	}

	return cmd
}

func makeSearchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := a.openStore()
		if err != nil {
			return err
		}

		matches := store.Search(args[0])
		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(matches)
		}

		if len(matches) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No matches")
			return nil
		}
		for _, rec := range matches {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", displayName(rec), rec.ID)
		}
		return nil
	}
}

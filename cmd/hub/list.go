package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/prompthub/prompthub/internal"
	"github.com/spf13/cobra"
)

func NewListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all records",
		Args:  cobra.NoArgs,
		RunE:  makeListRunner(a),
	}

	return cmd
}

func makeListRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		store, err := a.openStore()
		if err != nil {
			return err
		}

		records := store.List()
		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No records")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tID\tTAGS\tDOCUMENT")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				displayName(rec), rec.ID, strings.Join(rec.Tags, ","), rec.SourceDocument)
		}
		return w.Flush()
	}
}

func displayName(rec internal.Record) string {
	if rec.Icon != "" {
		return rec.Icon + " " + rec.Name
	}
	return rec.Name
}

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prompthub/prompthub/internal"
	"github.com/spf13/cobra"
)

func NewAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name> [content]",
		Short: "Add a store-only record",
		Long:  `Add a record directly to the store without a backing document. Reads content from stdin if not provided.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE:  makeAddRunner(a),
	}

	cmd.Flags().String("icon", "", "Icon for the record")
	cmd.Flags().StringSlice("tag", nil, "Tags for the record (repeatable)")
	return cmd
}

func makeAddRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := a.openStore()
		if err != nil {
			return err
		}

		content, err := resolveContent(args)
		if err != nil {
			return err
		}

		rec := internal.NewRecord(args[0], content)
		rec.Icon, _ = cmd.Flags().GetString("icon")
		rec.Tags, _ = cmd.Flags().GetStringSlice("tag")

		if err := store.Add(rec); err != nil {
			return fmt.Errorf("add record: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", rec.Name, rec.ID)
		return nil
	}
}

func resolveContent(args []string) (string, error) {
	if len(args) >= 2 {
		return args[1], nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prompthub/prompthub/internal"
	"github.com/spf13/cobra"
)

func NewNewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Create a new document in the storage root",
		Long:  `Create a markdown document and register its record. Without a title the file gets a timestamped name and a placeholder heading.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeNewRunner(a),
	}

	return cmd
}

func makeNewRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := a.openStore()
		if err != nil {
			return err
		}

		title := internal.PlaceholderTitle
		base := internal.TimestampName(time.Now())
		if len(args) == 1 && args[0] != "" {
			title = args[0]
			base = internal.SanitizeFilename(title)
		}

		path := filepath.Join(store.Root(), base+internal.DocumentExt)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("document already exists: %s", path)
		}
		if err := os.WriteFile(path, []byte(internal.DocumentTemplate(title)), 0644); err != nil {
			return fmt.Errorf("write document: %w", err)
		}

		rec, ok, err := a.reconciler().HandleSave(path)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (mirroring disabled, no record registered)\n", path)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (record %s)\n", rec.SourceDocument, rec.ID)
		return nil
	}
}

package main

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/prompthub/prompthub/internal"
	"github.com/spf13/cobra"
)

func NewReconcileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [path]",
		Short: "Reconcile documents with the record store",
		Long:  `Re-read one document (or every document in the storage root) and fold its contents back into the record store. Dangling document links are pruned.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeReconcileRunner(a),
	}

	return cmd
}

func makeReconcileRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := a.openStore()
		if err != nil {
			return err
		}
		rec := a.reconciler()

		if len(args) == 1 {
			record, ok, err := rec.HandleSave(args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Ignored %s\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reconciled %s -> %s\n", record.SourceDocument, record.Name)
			return nil
		}

		if err := store.Refresh(); err != nil {
			return fmt.Errorf("refresh store: %w", err)
		}

		docs, err := listDocuments(store.Root())
		if err != nil {
			return err
		}
		count := 0
		for _, path := range docs {
			if _, ok, err := rec.HandleSave(path); err != nil {
				a.logger.Warn("reconcile failed", "path", path, "error", err)
			} else if ok {
				count++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reconciled %d documents, %d records total\n",
			count, len(store.List()))
		return nil
	}
}

// listDocuments collects every markdown file under root, honoring
// .hubignore and skipping metadata directories.
func listDocuments(root string) ([]string, error) {
	matcher, err := internal.NewIgnoreMatcher(root)
	if err != nil {
		return nil, fmt.Errorf("load ignore patterns: %w", err)
	}

	var docs []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (internal.SkipDir(d.Name()) || matcher.MatchDir(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), internal.DocumentExt) {
			return nil
		}
		if matcher.Match(path) {
			return nil
		}
		docs = append(docs, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return docs, nil
}

package main

import (
	"fmt"
	"os"

	"github.com/prompthub/prompthub/internal"
	"github.com/spf13/cobra"
)

func NewDoctorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the storage directory for problems",
		Long:  `Inspect the store, documents and repository state: duplicate identity markers, dangling document links, and missing configuration. With --fix, repairable problems are fixed in place.`,
		Args:  cobra.NoArgs,
		RunE:  makeDoctorRunner(a),
	}

	cmd.Flags().Bool("fix", false, "Repair problems that can be fixed automatically")
	return cmd
}

func makeDoctorRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		store, err := a.openStore()
		if err != nil {
			return err
		}
		fix, _ := cmd.Flags().GetBool("fix")
		out := cmd.OutOrStdout()
		problems := 0

		fmt.Fprintf(out, "storage root: %s\n", store.Root())
		fmt.Fprintf(out, "records:      %d\n", len(store.List()))

		docs, err := listDocuments(store.Root())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "documents:    %d\n", len(docs))

		rec := a.reconciler()
		for _, path := range docs {
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(out, "unreadable document: %s (%v)\n", path, err)
				problems++
				continue
			}
			if _, _, changed := internal.DedupeMarkers(string(data)); changed {
				problems++
				if fix {
					if _, _, err := rec.HandleSave(path); err != nil {
						fmt.Fprintf(out, "duplicate markers in %s: repair failed: %v\n", path, err)
						continue
					}
					fmt.Fprintf(out, "duplicate markers in %s: repaired\n", path)
				} else {
					fmt.Fprintf(out, "duplicate markers in %s (rerun with --fix)\n", path)
				}
			}
		}

		dangling := 0
		for _, r := range store.List() {
			if r.SourceDocument == "" {
				continue
			}
			if _, err := os.Stat(r.SourceDocument); os.IsNotExist(err) {
				dangling++
			}
		}
		if dangling > 0 {
			problems += dangling
			if fix {
				if err := store.Refresh(); err != nil {
					return fmt.Errorf("refresh: %w", err)
				}
				fmt.Fprintf(out, "dangling document links: %d pruned\n", dangling)
			} else {
				fmt.Fprintf(out, "dangling document links: %d (rerun with --fix)\n", dangling)
			}
		}

		summary := internal.InspectRepository(store.Root())
		if summary.IsRepository {
			fmt.Fprintf(out, "repository:   branch %s, %d tracked files\n",
				summary.Branch, summary.TrackedFiles)
		} else if a.cfg.Git.SyncEnabled {
			problems++
			fmt.Fprintln(out, "sync is enabled but the storage root is not a repository (run 'hub init --git')")
		}
		if a.cfg.Git.SyncEnabled && a.cfg.Git.RemoteURL == "" {
			problems++
			fmt.Fprintln(out, "sync is enabled but no remote is configured (run 'hub remote <url>')")
		}

		if problems == 0 {
			fmt.Fprintln(out, "No problems found")
		}
		return nil
	}
}

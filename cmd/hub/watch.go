package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prompthub/prompthub/internal"
	"github.com/spf13/cobra"
)

func NewWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the storage root and reconcile document saves",
		Long:  `Watch the storage root for document changes, fold every save into the record store, and schedule debounced auto-sync runs when enabled.`,
		RunE:  makeWatchRunner(a),
	}

	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching file events")
	return cmd
}

func makeWatchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		store, err := a.openStore()
		if err != nil {
			return err
		}
		rec := a.reconciler()
		debounce, _ := cmd.Flags().GetDuration("debounce")

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		if err := addWatchDirs(watcher, store.Root()); err != nil {
			return fmt.Errorf("add watch dirs: %w", err)
		}

		autoSync := newWatchAutoSync(a, cmd)
		if autoSync != nil {
			defer autoSync.Stop()
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", store.Root())

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		dirty := map[string]bool{}
		sawDocument := false

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if shouldIgnoreEvent(event, store.Root()) {
					continue
				}
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = addWatchDirs(watcher, event.Name)
						continue
					}
				}
				if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					// Deletions prune through the regular refresh path.
					dirty[""] = true
				} else {
					dirty[event.Name] = true
				}
				sawDocument = sawDocument || isDocumentPath(event.Name)
				timer.Reset(debounce)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			case <-timer.C:
				handleBatch(cmd, store, rec, dirty)
				// Only document saves qualify for scheduling a sync run.
				if autoSync != nil && sawDocument {
					autoSync.Schedule()
				}
				dirty = map[string]bool{}
				sawDocument = false
			}
		}
	}
}

func handleBatch(cmd *cobra.Command, store *internal.Store, rec *internal.Reconciler, dirty map[string]bool) {
	if dirty[""] {
		if err := store.Refresh(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "refresh: %v\n", err)
		}
	}
	for path := range dirty {
		if path == "" {
			continue
		}
		record, ok, err := rec.HandleSave(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "reconcile %s: %v\n", path, err)
			continue
		}
		if ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Reconciled %s -> %s\n", record.SourceDocument, record.Name)
		}
	}
}

// newWatchAutoSync wires the debounced sync runner when auto-sync is
// enabled. Returns nil when the feature is off.
func newWatchAutoSync(a *app, cmd *cobra.Command) *internal.AutoSync {
	if !a.cfg.Git.SyncEnabled || !a.cfg.Git.AutoSyncOnSave {
		return nil
	}
	syncer := a.syncer()
	delay := time.Duration(a.cfg.Git.AutoSyncDelaySeconds) * time.Second
	run := func(ctx context.Context) error {
		return syncer.Sync(ctx, a.cfg.Git)
	}
	onResult := func(err error) {
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "auto-sync: %v\n", err)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Auto-sync complete")
	}
	return internal.NewAutoSync(delay, run, onResult, a.logger)
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() {
			if path != root && internal.SkipDir(filepath.Base(path)) {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

// isDocumentPath reports whether the path names a mirrored markdown
// document, the only kind of save that qualifies for auto-sync.
func isDocumentPath(name string) bool {
	return strings.EqualFold(filepath.Ext(name), internal.DocumentExt)
}

func shouldIgnoreEvent(event fsnotify.Event, root string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}

	base := filepath.Base(event.Name)
	if base == internal.StorageFilename || strings.HasPrefix(base, ".records-") {
		return true
	}
	rel, err := filepath.Rel(root, event.Name)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if internal.SkipDir(part) {
			return true
		}
	}
	return false
}

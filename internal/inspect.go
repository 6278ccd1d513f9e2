package internal

import (
	"errors"
	"io"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// RepoSummary is a read-only view of the storage root's repository state,
// used to decide between sync actions before anything destructive runs.
type RepoSummary struct {
	IsRepository bool
	HasCommits   bool
	TrackedFiles int
	Branch       string
}

// Action is the recommended sync move for a remote/local pair.
type Action string

const (
	// ActionSaveOnly keeps the remote URL in config without touching the
	// repository.
	ActionSaveOnly Action = "saveOnly"
	// ActionUpdateOriginOnly repoints origin and leaves history alone.
	ActionUpdateOriginOnly Action = "updateOriginOnly"
	// ActionImportOverwrite replaces local content with the remote's.
	ActionImportOverwrite Action = "importOverwrite"
	// ActionInitAndPush publishes local content to an empty remote.
	ActionInitAndPush Action = "initAndPush"
)

// InspectRepository summarizes the repository at root without running the
// git binary. A missing or unreadable repository yields the zero summary.
func InspectRepository(root string) RepoSummary {
	var sum RepoSummary

	fs := osfs.New(filepath.Join(root, ".git"))
	storage := filesystem.NewStorage(fs, cache.NewObjectLRUDefault())
	wt := osfs.New(root)

	repo, err := git.Open(storage, wt)
	if err != nil {
		return sum
	}
	sum.IsRepository = true

	head, err := repo.Head()
	if err != nil {
		// Unborn branch: initialized but no commit yet.
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			if ref, refErr := repo.Reference(plumbing.HEAD, false); refErr == nil {
				sum.Branch = ref.Target().Short()
			}
		}
		return sum
	}
	sum.HasCommits = true
	sum.Branch = head.Name().Short()

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return sum
	}
	tree, err := commit.Tree()
	if err != nil {
		return sum
	}
	files := tree.Files()
	defer files.Close()
	for {
		_, err := files.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		sum.TrackedFiles++
	}
	return sum
}

// Recommend picks the sync action for a probed remote and the local
// summary. Destructive actions are only ever recommendations; callers must
// confirm importOverwrite with the user before running it.
func Recommend(probe ProbeResult, local RepoSummary) Action {
	switch probe {
	case ProbeEmpty:
		return ActionInitAndPush
	case ProbeNonEmpty:
		if !local.HasCommits || local.TrackedFiles == 0 {
			return ActionImportOverwrite
		}
		return ActionUpdateOriginOnly
	default:
		// notFound, unauthorized, unreachable: record the URL and stop.
		return ActionSaveOnly
	}
}

package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Reconciler maps document saves onto record mutations and keeps document
// filenames aligned with record titles. All persistence goes through the
// store; the reconciler itself only touches individual document files.
type Reconciler struct {
	store  *Store
	mirror bool
	logger *slog.Logger
}

func NewReconciler(store *Store, mirrorEnabled bool, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:  store,
		mirror: mirrorEnabled,
		logger: logger,
	}
}

// HandleSave reconciles one saved file with the record store. Saves outside
// the storage root and non-document files are ignored. Returns the record
// the document now maps to, or ok=false when the save was ignored.
func (r *Reconciler) HandleSave(path string) (Record, bool, error) {
	if !r.mirror {
		return Record{}, false, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Record{}, false, fmt.Errorf("resolve path: %w", err)
	}
	root := r.store.Root()
	if root == "" || !WithinRoot(root, abs) {
		return Record{}, false, nil
	}
	if !strings.HasSuffix(strings.ToLower(abs), DocumentExt) {
		return Record{}, false, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return Record{}, false, fmt.Errorf("read document %s: %w", abs, err)
	}
	text := string(data)

	// Repair duplicate legacy markers left behind by an old bug: keep the
	// first, rewrite the file without the rest.
	repaired, markerID, markersChanged := DedupeMarkers(text)
	if markersChanged {
		if err := os.WriteFile(abs, []byte(repaired), 0644); err != nil {
			r.logger.Warn("failed to rewrite document after marker repair",
				"path", abs, "error", err)
		} else {
			r.logger.Info("removed duplicate identity markers", "path", abs)
		}
		text = repaired
	}

	doc := ParseDocument(text)
	if doc.ID == "" {
		doc.ID = markerID
	}

	name := strings.TrimSpace(doc.Name)
	if name == "" || name == PlaceholderTitle {
		name = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}

	existing, found := r.resolve(doc.ID, abs)
	if found {
		updated := existing
		updated.Name = name
		updated.Icon = doc.Icon
		updated.Content = doc.Body
		updated.SourceDocument = abs
		if doc.Tags != nil {
			updated.Tags = doc.Tags
		}
		if err := r.store.Update(updated); err != nil {
			return Record{}, false, fmt.Errorf("update record %s: %w", existing.ID, err)
		}

		final, renameErr := r.renameIfNeeded(updated, existing, doc)
		if renameErr != nil {
			// Rename is a best-effort side action; the record update stands.
			r.logger.Warn("failed to rename document", "path", abs, "error", renameErr)
		}
		return final, true, nil
	}

	created := Record{
		ID:             NewID(),
		Name:           name,
		Icon:           doc.Icon,
		Content:        doc.Body,
		Tags:           doc.Tags,
		SourceDocument: abs,
	}
	if doc.ID != "" {
		if _, taken := r.store.GetByID(doc.ID); !taken {
			created.ID = doc.ID
		}
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	added, err := r.addWithUniqueName(created)
	if err != nil {
		return Record{}, false, err
	}
	final, renameErr := r.renameIfNeeded(added, added, doc)
	if renameErr != nil {
		r.logger.Warn("failed to rename document", "path", abs, "error", renameErr)
	}
	return final, true, nil
}

// resolve finds the record this document belongs to: by declared id first,
// then by the document path.
func (r *Reconciler) resolve(id, path string) (Record, bool) {
	if id != "" {
		if rec, ok := r.store.GetByID(id); ok {
			return rec, true
		}
	}
	return r.store.FindBySourceDocument(path)
}

// addWithUniqueName retries Add under alternative names when the parsed
// title collides with an existing record.
func (r *Reconciler) addWithUniqueName(rec Record) (Record, error) {
	base := rec.Name
	for i := 0; i <= 50; i++ {
		if i > 0 {
			rec.Name = fmt.Sprintf("%s-%d", base, i)
		}
		err := r.store.Add(rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrDuplicateName) {
			return Record{}, err
		}
	}
	return Record{}, fmt.Errorf("%w: %q", ErrDuplicateName, base)
}

// renameIfNeeded brings the document filename in line with the record title.
// Skipped when the frontmatter opts out (rename: false) or when the current
// filename matches neither the auto-generated template nor the previous
// title, which means the user named the file by hand.
func (r *Reconciler) renameIfNeeded(rec, prev Record, doc ParsedDocument) (Record, error) {
	if doc.Rename != nil && !*doc.Rename {
		return rec, nil
	}
	current := rec.SourceDocument
	base := strings.TrimSuffix(filepath.Base(current), filepath.Ext(current))
	if !IsAutoGeneratedName(base) && !matchesTitle(base, prev) {
		return rec, nil
	}

	want := SanitizeFilename(strings.TrimSpace(rec.Icon + " " + rec.Name))
	if want == "" || want == base {
		return rec, nil
	}

	dir := filepath.Dir(current)
	target := uniquePath(filepath.Join(dir, want+DocumentExt), current)
	if target == current {
		return rec, nil
	}

	if err := os.Rename(current, target); err != nil {
		return rec, fmt.Errorf("rename %s: %w", current, err)
	}
	// Direct store mutation: persists the new path without firing the change
	// notification, so this rename cannot re-trigger reconciliation.
	if err := r.store.RelinkDocument(rec.ID, target); err != nil {
		return rec, err
	}
	rec.SourceDocument = target
	r.logger.Info("renamed document to match title", "from", current, "to", target)
	return rec, nil
}

// matchesTitle reports whether base is the filename this tool would have
// derived from the record's previous title.
func matchesTitle(base string, rec Record) bool {
	if rec.Name == "" {
		return false
	}
	if base == SanitizeFilename(strings.TrimSpace(rec.Icon+" "+rec.Name)) {
		return true
	}
	return base == SanitizeFilename(rec.Name)
}

// uniquePath appends -1, -2, ... until the candidate does not exist.
// A candidate equal to current counts as free (the file renames onto
// itself).
func uniquePath(target, current string) string {
	dir := filepath.Dir(target)
	ext := filepath.Ext(target)
	base := strings.TrimSuffix(filepath.Base(target), ext)

	candidate := target
	for i := 1; ; i++ {
		if candidate == current {
			return candidate
		}
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, i, ext))
	}
}

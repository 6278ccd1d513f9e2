package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// StorageFilename is the authoritative collection file inside the
	// storage root.
	StorageFilename = "records.json"

	// StorageVersion is written into every persisted snapshot. Unknown
	// top-level keys are ignored on load so older readers stay compatible.
	StorageVersion = "1.0.0"
)

// storageEnvelope is the on-disk shape of the authoritative file.
type storageEnvelope struct {
	Version string   `json:"version"`
	Records []Record `json:"records"`
}

// Store owns the in-memory record list and the authoritative file. It is the
// single writer of that file; every mutation goes through Add/Update/Remove/
// Refresh, serialized by one mutex.
type Store struct {
	mu      sync.Mutex
	root    string
	records []Record
	subs    []func()
	logger  *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// Root returns the currently bound storage root ("" before Initialize).
func (s *Store) Root() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Subscribe registers a callback fired exactly once after every successful
// persistence, once the authoritative file is durably in place.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Initialize binds the store to root, creating it if missing, then loads the
// authoritative file, imports loose documents, and prunes records whose
// documents vanished. The result is persisted when discovery or pruning
// changed anything.
func (s *Store) Initialize(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return fmt.Errorf("create storage root: %w", err)
	}

	s.mu.Lock()
	s.root = abs
	created, err := s.loadLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}

	discovered, err := s.discoverLocked()
	if err != nil {
		s.logger.Warn("document discovery failed", "root", abs, "error", err)
	}
	pruned := s.pruneLocked()

	notify := false
	if created || discovered || pruned {
		if err := s.persistLocked(); err != nil {
			s.mu.Unlock()
			return err
		}
		notify = true
	}
	s.mu.Unlock()

	if notify {
		s.notify()
	}
	return nil
}

// UpdateStoragePath re-points the store at a new directory and re-runs the
// full load/discover/prune cycle.
func (s *Store) UpdateStoragePath(newRoot string) error {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
	return s.Initialize(newRoot)
}

// Refresh reloads the authoritative file from disk and re-runs discovery and
// pruning. Used after out-of-band changes such as a git pull.
func (s *Store) Refresh() error {
	s.mu.Lock()
	root := s.root
	if root == "" {
		s.mu.Unlock()
		return errors.New("store not initialized")
	}
	s.records = nil
	if _, err := s.loadLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	discovered, err := s.discoverLocked()
	if err != nil {
		s.logger.Warn("document discovery failed", "root", root, "error", err)
	}
	pruned := s.pruneLocked()
	if discovered || pruned {
		if err := s.persistLocked(); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// List returns a copy of all records; callers may mutate the result freely.
func (s *Store) List() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) GetByID(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

func (s *Store) GetByName(name string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.Name == name {
			return r, true
		}
	}
	return Record{}, false
}

// Search returns records whose name, content, or tags contain the keyword,
// case-insensitively.
func (s *Store) Search(keyword string) []Record {
	lower := strings.ToLower(keyword)
	var out []Record
	for _, r := range s.List() {
		if strings.Contains(strings.ToLower(r.Name), lower) ||
			strings.Contains(strings.ToLower(r.Content), lower) {
			out = append(out, r)
			continue
		}
		for _, tag := range r.Tags {
			if strings.Contains(strings.ToLower(tag), lower) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Add appends a record and persists. Fails with ErrDuplicateName when
// another record already uses the name.
func (s *Store) Add(r Record) error {
	s.mu.Lock()
	if err := r.Validate(s.root); err != nil {
		s.mu.Unlock()
		return err
	}
	for _, existing := range s.records {
		if existing.Name == r.Name {
			s.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrDuplicateName, r.Name)
		}
	}
	s.records = append(s.records, r)
	if err := s.persistLocked(); err != nil {
		s.records = s.records[:len(s.records)-1]
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// Update replaces the record with the same ID, stamps UpdatedAt, and
// persists. Fails with ErrRecordNotFound for unknown IDs and with
// ErrDuplicateName when a different record already uses the new name.
func (s *Store) Update(r Record) error {
	s.mu.Lock()
	if err := r.Validate(s.root); err != nil {
		s.mu.Unlock()
		return err
	}
	idx := -1
	for i, existing := range s.records {
		if existing.ID == r.ID {
			idx = i
			continue
		}
		if existing.Name == r.Name {
			s.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrDuplicateName, r.Name)
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return fmt.Errorf("%w: id %q", ErrRecordNotFound, r.ID)
	}
	prev := s.records[idx]
	r.UpdatedAt = time.Now().UTC()
	s.records[idx] = r
	if err := s.persistLocked(); err != nil {
		s.records[idx] = prev
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// Remove deletes the record with the given ID and persists. When the record
// had a mirrored document, the file is deleted best-effort: a failure there
// is logged and reported through the logger but never rolls back the
// removal. The second return value is false when the ID is unknown.
func (s *Store) Remove(id string) (Record, bool, error) {
	s.mu.Lock()
	idx := -1
	for i, r := range s.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return Record{}, false, nil
	}
	removed := s.records[idx]
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	if err := s.persistLocked(); err != nil {
		s.records = append(s.records[:idx], append([]Record{removed}, s.records[idx:]...)...)
		s.mu.Unlock()
		return Record{}, false, err
	}
	root := s.root
	s.mu.Unlock()

	if removed.SourceDocument != "" {
		if !WithinRoot(root, removed.SourceDocument) {
			s.logger.Warn("refusing to delete document outside storage root",
				"record", removed.ID, "path", removed.SourceDocument)
		} else if err := os.Remove(removed.SourceDocument); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to delete mirrored document",
				"record", removed.ID, "path", removed.SourceDocument, "error", err)
		}
	}

	s.notify()
	return removed, true, nil
}

// RelinkDocument updates a record's SourceDocument after an on-disk rename.
// It persists without firing the change notification so the reconciliation
// that performed the rename does not feed back into itself.
func (s *Store) RelinkDocument(id, newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !WithinRoot(s.root, newPath) {
		return fmt.Errorf("%w: %s", ErrPathEscape, newPath)
	}
	for i, r := range s.records {
		if r.ID == id {
			s.records[i].SourceDocument = newPath
			return s.persistLocked()
		}
	}
	return fmt.Errorf("%w: id %q", ErrRecordNotFound, id)
}

// FindBySourceDocument returns the record mirrored by the given path.
func (s *Store) FindBySourceDocument(path string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.SourceDocument == path {
			return r, true
		}
	}
	return Record{}, false
}

// loadLocked reads the authoritative file. A missing file initializes an
// empty collection and reports created=true so the caller persists it.
func (s *Store) loadLocked() (created bool, err error) {
	data, err := os.ReadFile(s.storageFileLocked())
	if os.IsNotExist(err) {
		s.records = nil
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", StorageFilename, err)
	}

	var envelope storageEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return false, fmt.Errorf("parse %s: %w", StorageFilename, err)
	}
	s.records = envelope.Records
	return false, nil
}

// persistLocked serializes the collection to a temporary file in the storage
// root and atomically renames it over the authoritative file. On failure the
// temporary file is removed and the previous authoritative file is left
// untouched.
func (s *Store) persistLocked() error {
	envelope := storageEnvelope{
		Version: StorageVersion,
		Records: s.records,
	}
	if envelope.Records == nil {
		envelope.Records = []Record{}
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	data = append(data, '\n')

	target := s.storageFileLocked()
	tmp, err := os.CreateTemp(s.root, ".records-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", StorageFilename, err)
	}
	return nil
}

func (s *Store) storageFileLocked() string {
	return filepath.Join(s.root, StorageFilename)
}

// notify fires all change subscribers once. Called only after a completed
// rename, so subscribers always observe a fully-written authoritative file.
func (s *Store) notify() {
	s.mu.Lock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// discoverLocked walks the storage root and imports documents that no record
// links yet, so manually dropped-in files become records without an explicit
// import step. Returns true when any record was added.
func (s *Store) discoverLocked() (bool, error) {
	matcher, err := NewIgnoreMatcher(s.root)
	if err != nil {
		return false, err
	}

	linked := make(map[string]bool, len(s.records))
	for _, r := range s.records {
		if r.SourceDocument != "" {
			linked[r.SourceDocument] = true
		}
	}

	changed := false
	walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && (SkipDir(d.Name()) || matcher.MatchDir(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), DocumentExt) || matcher.Match(path) {
			return nil
		}
		if linked[path] {
			return nil
		}

		record, ok := s.recordFromDocumentLocked(path)
		if !ok {
			return nil
		}
		s.records = append(s.records, record)
		linked[path] = true
		changed = true
		s.logger.Info("imported document", "path", path, "record", record.ID)
		return nil
	})
	if walkErr != nil {
		return changed, fmt.Errorf("walk storage root: %w", walkErr)
	}
	return changed, nil
}

// recordFromDocumentLocked derives a candidate record from a loose document.
// A declared id is honored unless it is already taken; the name is made
// unique with a numeric suffix.
func (s *Store) recordFromDocumentLocked(path string) (Record, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("failed to read document", "path", path, "error", err)
		return Record{}, false
	}

	doc := ParseDocument(string(data))

	name := doc.Name
	if name == "" || name == PlaceholderTitle {
		name = strings.TrimSuffix(filepath.Base(path), DocumentExt)
	}
	name = s.uniqueNameLocked(name)

	id := doc.ID
	if id == "" || s.idTakenLocked(id) {
		id = NewID()
	}

	now := time.Now().UTC()
	return Record{
		ID:             id,
		Name:           name,
		Icon:           doc.Icon,
		Content:        doc.Body,
		Tags:           doc.Tags,
		CreatedAt:      now,
		UpdatedAt:      now,
		SourceDocument: path,
	}, true
}

func (s *Store) idTakenLocked(id string) bool {
	for _, r := range s.records {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) uniqueNameLocked(name string) string {
	taken := func(candidate string) bool {
		for _, r := range s.records {
			if r.Name == candidate {
				return true
			}
		}
		return false
	}
	if !taken(name) {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", name, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

// pruneLocked drops records whose mirrored document no longer exists on
// disk. Store-only records are never pruned.
func (s *Store) pruneLocked() bool {
	kept := s.records[:0]
	changed := false
	for _, r := range s.records {
		if r.SourceDocument != "" {
			if _, err := os.Stat(r.SourceDocument); os.IsNotExist(err) {
				s.logger.Info("pruned record with missing document",
					"record", r.ID, "path", r.SourceDocument)
				changed = true
				continue
			}
		}
		kept = append(kept, r)
	}
	s.records = kept
	return changed
}

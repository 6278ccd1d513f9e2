package internal

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateName  = errors.New("record name already exists")
	ErrEmptyName      = errors.New("record name is empty")
	ErrPathEscape     = errors.New("document path escapes storage root")
)

// Record is a single stored snippet: a titled piece of reusable text,
// optionally mirrored by a markdown document inside the storage root.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// SourceDocument is the absolute path of the mirrored markdown file.
	// Empty for store-only records.
	SourceDocument string `json:"sourceDocument,omitempty"`
}

// NewRecord creates a record with a fresh ID and both timestamps set to now.
func NewRecord(name, content string) Record {
	now := time.Now().UTC()
	return Record{
		ID:        NewID(),
		Name:      name,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewID returns a collision-resistant identifier whose leading time component
// keeps IDs roughly ordered by creation.
func NewID() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 7)
	for i := range suffix {
		suffix[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + string(suffix)
}

// Validate checks the record's own invariants. Uniqueness of ID and Name is
// the store's job; containment of SourceDocument is checked against root.
func (r Record) Validate(root string) error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if r.SourceDocument != "" && !WithinRoot(root, r.SourceDocument) {
		return fmt.Errorf("%w: %s", ErrPathEscape, r.SourceDocument)
	}
	return nil
}

// WithinRoot reports whether target resolves to a location inside root.
// The check is based on the relative path, so ".." segments and sibling
// directories sharing a prefix are both rejected.
func WithinRoot(root, target string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil {
		return false
	}
	if rel == "." || rel == "" {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

package internal

import (
	"fmt"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Drift describes how a record's stored content disagrees with the body of
// its backing document.
type Drift struct {
	RecordID string
	Name     string
	Document string
	Missing  bool
	InSync   bool
	Diff     string
}

// ComputeDrift compares one record with its document. Records without a
// backing document are always in sync.
func ComputeDrift(rec Record) Drift {
	d := Drift{RecordID: rec.ID, Name: rec.Name, Document: rec.SourceDocument}
	if rec.SourceDocument == "" {
		d.InSync = true
		return d
	}
	data, err := os.ReadFile(rec.SourceDocument)
	if err != nil {
		d.Missing = true
		return d
	}
	doc := ParseDocument(string(data))
	if doc.Body == rec.Content {
		d.InSync = true
		return d
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(rec.Content, doc.Body, false)
	dmp.DiffCleanupSemantic(diffs)
	d.Diff = dmp.DiffPrettyText(diffs)
	return d
}

// DriftReport runs ComputeDrift over every record and keeps only the
// entries that need attention.
func DriftReport(records []Record) []Drift {
	var out []Drift
	for _, rec := range records {
		d := ComputeDrift(rec)
		if !d.InSync {
			out = append(out, d)
		}
	}
	return out
}

func (d Drift) String() string {
	switch {
	case d.Missing:
		return fmt.Sprintf("%s: document missing (%s)", d.Name, d.Document)
	case d.InSync:
		return fmt.Sprintf("%s: in sync", d.Name)
	default:
		return fmt.Sprintf("%s: content differs from %s", d.Name, d.Document)
	}
}

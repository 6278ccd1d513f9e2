package internal

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DocumentExt is the extension of mirrored record documents.
const DocumentExt = ".md"

// PlaceholderTitle is the title written into freshly created document
// templates. A document saved with this title is named after its file
// instead.
const PlaceholderTitle = "Untitled"

var (
	// legacy inline identity marker, e.g. <!-- PromptHub:id=123-abc -->.
	// Older releases appended one per save; only the first is authoritative.
	markerRe = regexp.MustCompile(`(?i)<!--\s*prompthub:id=([\w-]+)\s*-->`)

	headingRe      = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
	legacyTitleRe  = regexp.MustCompile(`(?i)^prompt\s*:\s*(.+)$`)
	leadingEmojiRe = regexp.MustCompile(`^([\x{231A}-\x{27BF}\x{1F300}-\x{1FAFF}])\s*(.+)$`)

	// auto-generated filename shapes; a filename outside these was chosen by
	// the user, which permanently disables automatic renaming for that file.
	autoNameRe = regexp.MustCompile(`^(?:record|prompt)-\d{8}-\d{6}(-\d+)?$`)
)

// ParsedDocument is the structured view of one markdown document.
type ParsedDocument struct {
	ID   string
	Name string
	Icon string
	Tags []string
	Type string

	// Rename is the frontmatter rename flag; nil when unset.
	Rename *bool

	// Body is the content with frontmatter and the title line stripped.
	Body string
}

// ParseDocument extracts frontmatter metadata, a title line, and the body
// from raw document text. Malformed frontmatter is not an error: the whole
// text is treated as body.
func ParseDocument(text string) ParsedDocument {
	meta, body := splitFrontmatter(text)

	doc := ParsedDocument{}
	if meta != nil {
		doc.ID = metaString(meta, "id")
		doc.Name = metaString(meta, "name")
		doc.Icon = metaString(meta, "emoji")
		doc.Type = metaString(meta, "type")
		doc.Tags = metaTags(meta)
		doc.Rename = metaBool(meta, "rename")
	}

	title, icon, rest := splitTitle(body)
	if doc.Name == "" {
		doc.Name = title
	}
	if doc.Icon == "" {
		doc.Icon = icon
	}
	if title != "" {
		body = rest
	}
	doc.Body = strings.TrimSpace(body)

	if doc.ID == "" {
		if m := markerRe.FindStringSubmatch(text); m != nil {
			doc.ID = m[1]
		}
	}

	return doc
}

// DedupeMarkers removes every legacy identity marker line after the first,
// returning the repaired text, the authoritative id (empty when no marker is
// present), and whether the text changed.
func DedupeMarkers(text string) (repaired, id string, changed bool) {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	seen := false
	for _, line := range lines {
		m := markerRe.FindStringSubmatch(line)
		if m == nil {
			kept = append(kept, line)
			continue
		}
		if seen {
			changed = true
			continue
		}
		seen = true
		id = m[1]
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), id, changed
}

// splitFrontmatter separates a leading ----delimited metadata block from the
// body. If the block is absent or its YAML is malformed, everything is body.
func splitFrontmatter(text string) (map[string]any, string) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return nil, text
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, text
	}

	var meta map[string]any
	block := strings.Join(lines[1:end], "\n")
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil || meta == nil {
		return nil, text
	}
	return meta, strings.Join(lines[end+1:], "\n")
}

// splitTitle treats the first non-blank line as the title when it is a
// heading, returning the title, a leading emoji pulled off it, and the
// remaining text. The legacy "# prompt: Title" form is still recognized.
func splitTitle(body string) (title, icon, rest string) {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		m := headingRe.FindStringSubmatch(trimmed)
		if m == nil {
			return "", "", body
		}
		title = strings.TrimSpace(m[1])
		if lm := legacyTitleRe.FindStringSubmatch(title); lm != nil {
			title = strings.TrimSpace(lm[1])
		}
		if em := leadingEmojiRe.FindStringSubmatch(title); em != nil {
			icon = em[1]
			title = strings.TrimSpace(em[2])
		}
		return title, icon, strings.Join(lines[i+1:], "\n")
	}
	return "", "", body
}

func metaString(meta map[string]any, key string) string {
	switch v := meta[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case int:
		return fmt.Sprintf("%d", v)
	case bool:
		return fmt.Sprintf("%t", v)
	}
	return ""
}

func metaBool(meta map[string]any, key string) *bool {
	switch v := meta[key].(type) {
	case bool:
		b := v
		return &b
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1", "on":
			b := true
			return &b
		case "false", "no", "n", "0", "off":
			b := false
			return &b
		}
	}
	return nil
}

// metaTags accepts both YAML lists ([a, b]) and plain comma lists (a, b).
func metaTags(meta map[string]any) []string {
	var out []string
	push := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	switch v := meta["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				push(s)
			}
		}
	case string:
		for _, part := range strings.Split(strings.Trim(v, "[]"), ",") {
			push(part)
		}
	}
	return out
}

// SanitizeFilename replaces characters that are unsafe in filenames and
// collapses runs of whitespace.
func SanitizeFilename(name string) string {
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, name)
	replaced = strings.Join(strings.Fields(replaced), " ")
	replaced = strings.TrimLeft(replaced, ".")
	if len(replaced) > 100 {
		replaced = replaced[:100]
	}
	return strings.TrimSpace(replaced)
}

// IsAutoGeneratedName reports whether base (a filename without extension)
// matches the tool's own timestamped template.
func IsAutoGeneratedName(base string) bool {
	return autoNameRe.MatchString(base)
}

// DocumentTemplate is the initial content of a document created by the tool.
func DocumentTemplate(title string) string {
	if title == "" {
		title = PlaceholderTitle
	}
	return "# " + title + "\n\n"
}

// TimestampName returns the auto-generated document basename for t,
// e.g. record-20260831-154501.
func TimestampName(t time.Time) string {
	return "record-" + t.Format("20060102-150405")
}

package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkipDir(t *testing.T) {
	assert.True(t, SkipDir(".git"))
	assert.True(t, SkipDir(".vscode"))
	assert.True(t, SkipDir(BackupDirPrefix+"20260831-120000"))
	assert.False(t, SkipDir("notes"))
	assert.False(t, SkipDir(".hidden"))
}

func TestIgnoreMatcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, IgnoreFilename),
		[]byte("# comment\n\n*.draft.md\narchive/\n"), 0644))

	m, err := NewIgnoreMatcher(dir)
	require.NoError(t, err)

	assert.True(t, m.Match(filepath.Join(dir, "wip.draft.md")))
	assert.False(t, m.Match(filepath.Join(dir, "final.md")))
	assert.True(t, m.MatchDir(filepath.Join(dir, "archive")))
	assert.False(t, m.MatchDir(filepath.Join(dir, "active")))
}

func TestIgnoreMatcherMissingFile(t *testing.T) {
	m, err := NewIgnoreMatcher(t.TempDir())
	require.NoError(t, err)
	assert.False(t, m.Match("anything.md"))
}

package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDriftStoreOnly(t *testing.T) {
	d := ComputeDrift(NewRecord("store-only", "content"))
	assert.True(t, d.InSync)
	assert.Empty(t, d.Diff)
}

func TestComputeDriftInSync(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("# A\n\nsame body"), 0644))

	rec := NewRecord("a", "same body")
	rec.SourceDocument = path
	d := ComputeDrift(rec)
	assert.True(t, d.InSync)
}

func TestComputeDriftDiverged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("# A\n\nedited body"), 0644))

	rec := NewRecord("a", "stored body")
	rec.SourceDocument = path
	d := ComputeDrift(rec)
	assert.False(t, d.InSync)
	assert.False(t, d.Missing)
	assert.NotEmpty(t, d.Diff)
}

func TestComputeDriftMissingDocument(t *testing.T) {
	rec := NewRecord("a", "body")
	rec.SourceDocument = filepath.Join(t.TempDir(), "gone.md")
	d := ComputeDrift(rec)
	assert.True(t, d.Missing)
	assert.False(t, d.InSync)
}

func TestDriftReportFiltersInSync(t *testing.T) {
	dir := t.TempDir()
	okPath := filepath.Join(dir, "ok.md")
	require.NoError(t, os.WriteFile(okPath, []byte("# OK\n\nfine"), 0644))
	badPath := filepath.Join(dir, "bad.md")
	require.NoError(t, os.WriteFile(badPath, []byte("# Bad\n\nchanged"), 0644))

	okRec := NewRecord("ok", "fine")
	okRec.SourceDocument = okPath
	badRec := NewRecord("bad", "original")
	badRec.SourceDocument = badPath

	report := DriftReport([]Record{okRec, badRec, NewRecord("plain", "x")})
	require.Len(t, report, 1)
	assert.Equal(t, "bad", report[0].Name)
}

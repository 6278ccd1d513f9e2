package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupReconciler(t *testing.T) (*Reconciler, *Store, string) {
	t.Helper()
	store, dir := setupStore(t)
	return NewReconciler(store, true, testLogger()), store, dir
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestHandleSaveCreatesRecord(t *testing.T) {
	rec, store, dir := setupReconciler(t)

	path := writeDoc(t, dir, "note.md", "# My Title\n\nBody text")
	record, ok, err := rec.HandleSave(path)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "My Title", record.Name)
	assert.Equal(t, "Body text", record.Content)
	assert.Equal(t, path, record.SourceDocument)
	assert.Len(t, store.List(), 1)
}

func TestHandleSaveUpdatesExisting(t *testing.T) {
	rec, store, dir := setupReconciler(t)

	path := writeDoc(t, dir, "note.md", "# My Title\n\nfirst")
	created, _, err := rec.HandleSave(path)
	require.NoError(t, err)

	writeDoc(t, dir, "note.md", "# My Title\n\nsecond")
	updated, ok, err := rec.HandleSave(path)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "second", updated.Content)
	assert.Len(t, store.List(), 1)
}

func TestHandleSaveIgnoresOutsideRoot(t *testing.T) {
	rec, _, _ := setupReconciler(t)

	outside := filepath.Join(t.TempDir(), "outside.md")
	require.NoError(t, os.WriteFile(outside, []byte("# X\n\nx"), 0644))

	_, ok, err := rec.HandleSave(outside)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleSaveIgnoresNonDocuments(t *testing.T) {
	rec, _, dir := setupReconciler(t)

	path := writeDoc(t, dir, "notes.txt", "plain")
	_, ok, err := rec.HandleSave(path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleSaveDisabledMirror(t *testing.T) {
	store, dir := setupStore(t)
	rec := NewReconciler(store, false, testLogger())

	path := writeDoc(t, dir, "note.md", "# T\n\nx")
	_, ok, err := rec.HandleSave(path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleSaveRepairsDuplicateMarkers(t *testing.T) {
	rec, store, dir := setupReconciler(t)

	content := strings.Join([]string{
		"# Repaired",
		"",
		"<!-- PromptHub:id=first-marker -->",
		"final body",
		"<!-- PromptHub:id=second-marker -->",
		"<!-- PromptHub:id=third-marker -->",
	}, "\n")
	path := writeDoc(t, dir, "dup.md", content)

	record, ok, err := rec.HandleSave(path)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "first-marker", record.ID)
	assert.Len(t, store.List(), 1)

	// The repaired file keeps exactly one marker.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.ToLower(string(data)), "prompthub:id="))

	// The record content matches the repaired document's body.
	reparsed := ParseDocument(string(data))
	assert.Equal(t, reparsed.Body, record.Content)
}

func TestHandleSaveRenamesAutoGeneratedFile(t *testing.T) {
	rec, store, dir := setupReconciler(t)

	path := writeDoc(t, dir, "record-20260831-120000.md", "# Beta\n\nbody")
	record, ok, err := rec.HandleSave(path)
	require.NoError(t, err)
	require.True(t, ok)

	want := filepath.Join(dir, "Beta.md")
	assert.Equal(t, want, record.SourceDocument)
	assert.FileExists(t, want)
	assert.NoFileExists(t, path)

	stored, okStored := store.GetByID(record.ID)
	require.True(t, okStored)
	assert.Equal(t, want, stored.SourceDocument)
	assert.Len(t, store.List(), 1)
}

func TestHandleSaveRenameKeepsIcon(t *testing.T) {
	rec, _, dir := setupReconciler(t)

	path := writeDoc(t, dir, "prompt-20260831-120000.md", "# 🚀 Launch\n\nbody")
	record, _, err := rec.HandleSave(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "🚀 Launch.md"), record.SourceDocument)
	assert.Equal(t, "🚀", record.Icon)
	assert.Equal(t, "Launch", record.Name)
}

func TestHandleSaveSkipsRenameWhenOptedOut(t *testing.T) {
	rec, _, dir := setupReconciler(t)

	content := "---\nrename: false\n---\n# Custom\n\nbody"
	path := writeDoc(t, dir, "record-20260831-120000.md", content)

	record, _, err := rec.HandleSave(path)
	require.NoError(t, err)
	assert.Equal(t, path, record.SourceDocument)
}

func TestHandleSaveSkipsRenameForCustomFilenames(t *testing.T) {
	rec, _, dir := setupReconciler(t)

	path := writeDoc(t, dir, "my-own-name.md", "# Different Title\n\nbody")
	record, _, err := rec.HandleSave(path)
	require.NoError(t, err)
	assert.Equal(t, path, record.SourceDocument)
}

func TestHandleSaveRenamesOnTitleChange(t *testing.T) {
	rec, _, dir := setupReconciler(t)

	path := writeDoc(t, dir, "Alpha.md", "# Alpha\n\nbody")
	_, _, err := rec.HandleSave(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("# Beta\n\nbody"), 0o644))
	record, _, err := rec.HandleSave(path)
	require.NoError(t, err)

	want := filepath.Join(dir, "Beta.md")
	assert.Equal(t, want, record.SourceDocument)
	assert.Equal(t, "Beta", record.Name)
	assert.FileExists(t, want)
	assert.NoFileExists(t, path)
}

func TestHandleSaveRenameCollision(t *testing.T) {
	rec, _, dir := setupReconciler(t)

	writeDoc(t, dir, "Beta.md", "# Other\n\nx")
	_, _, err := rec.HandleSave(filepath.Join(dir, "Beta.md"))
	require.NoError(t, err)

	path := writeDoc(t, dir, "record-20260831-120000.md", "# Beta\n\nbody")
	record, _, err := rec.HandleSave(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Beta-1.md"), record.SourceDocument)
}

func TestHandleSavePlaceholderTitleUsesFilename(t *testing.T) {
	rec, _, dir := setupReconciler(t)

	path := writeDoc(t, dir, "my-own-name.md", "# Untitled\n\nbody")
	record, _, err := rec.HandleSave(path)
	require.NoError(t, err)
	assert.Equal(t, "my-own-name", record.Name)
}

func TestHandleSaveHonorsDeclaredID(t *testing.T) {
	rec, store, dir := setupReconciler(t)

	path := writeDoc(t, dir, "a.md", "---\nid: declared-id-1\n---\n# A\n\nx")
	record, _, err := rec.HandleSave(path)
	require.NoError(t, err)
	assert.Equal(t, "declared-id-1", record.ID)

	// A second document claiming the same id resolves to the same record.
	path2 := writeDoc(t, dir, "b.md", "---\nid: declared-id-1\n---\n# A\n\nmoved")
	record2, _, err := rec.HandleSave(path2)
	require.NoError(t, err)
	assert.Equal(t, record.ID, record2.ID)
	assert.Len(t, store.List(), 1)
}

func TestHandleSaveNameCollisionGetsSuffix(t *testing.T) {
	rec, store, dir := setupReconciler(t)

	first := writeDoc(t, dir, "one.md", "# Same\n\na")
	_, _, err := rec.HandleSave(first)
	require.NoError(t, err)

	second := writeDoc(t, dir, "two.md", "# Same\n\nb")
	record, _, err := rec.HandleSave(second)
	require.NoError(t, err)
	assert.Equal(t, "Same-1", record.Name)
	assert.Len(t, store.List(), 2)
}

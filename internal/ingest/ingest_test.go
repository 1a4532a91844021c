package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "tome1", DocumentID("/books/tome1.txt"))
	assert.Equal(t, "tome.1", DocumentID("tome.1.txt"))
	assert.Equal(t, "README", DocumentID("README"))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tome2.txt", "deux")
	writeFile(t, dir, "tome1.txt", "un")
	writeFile(t, dir, "notes.md", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	docs, err := LoadDir(dir, map[string]int{"tome1": 223})
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "tome1", docs[0].ID)
	assert.Equal(t, "un", docs[0].Text)
	require.NotNil(t, docs[0].PageCount)
	assert.Equal(t, 223, *docs[0].PageCount)
	assert.NotZero(t, docs[0].Version)

	assert.Equal(t, "tome2", docs[1].ID)
	assert.Nil(t, docs[1].PageCount)
	assert.NoError(t, docs[1].Err)
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}

func TestLoadFile_InvalidUTF8(t *testing.T) {
	path := writeFile(t, t.TempDir(), "latin1.txt", "caf\xe9")

	doc := LoadFile(path, nil)

	require.NoError(t, doc.Err)
	assert.Equal(t, "caf�", doc.Text)
}

func TestLoadFile_MissingBecomesDocumentError(t *testing.T) {
	doc := LoadFile(filepath.Join(t.TempDir(), "gone.txt"), map[string]int{"gone": 10})

	assert.Equal(t, "gone", doc.ID)
	assert.Error(t, doc.Err)
	assert.Equal(t, 10, *doc.PageCount)
}

func TestLoadPageCounts(t *testing.T) {
	dir := t.TempDir()

	jsonPath := writeFile(t, dir, "pages.json", `{"tome1": 223, "tome2": 251}`)
	got, err := LoadPageCounts(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"tome1": 223, "tome2": 251}, got)

	yamlPath := writeFile(t, dir, "pages.yaml", "tome1: 223\ntome7: 607\n")
	got, err = LoadPageCounts(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"tome1": 223, "tome7": 607}, got)
}

func TestLoadPageCounts_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadPageCounts(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = LoadPageCounts(writeFile(t, dir, "bad.json", `{"tome1": "many"}`))
	assert.Error(t, err)

	_, err = LoadPageCounts(writeFile(t, dir, "neg.json", `{"tome1": -3}`))
	assert.Error(t, err)
}

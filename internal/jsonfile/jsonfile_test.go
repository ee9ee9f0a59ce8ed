package jsonfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestRead_MissingFileReturnsNotExist(t *testing.T) {
	var d doc
	err := Read(filepath.Join(t.TempDir(), "missing.json"), &d)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestWriteAtomic_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")

	require.NoError(t, WriteAtomic(path, doc{Name: "fox", Count: 60}))

	var got doc
	require.NoError(t, Read(path, &got))
	assert.Equal(t, doc{Name: "fox", Count: 60}, got)
}

func TestWriteAtomic_BacksUpAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	require.NoError(t, WriteAtomic(path, doc{Name: "v1"}))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, WriteAtomic(path, doc{Name: "v2"}))

	backup, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, string(first), string(backup))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"doc.json", "doc.json.bak"}, names)
}

// ABOUTME: Tests for the locked JSON document helper
// ABOUTME: Covers missing files, round trips, atomic replacement, and lock exclusion

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestLoad_MissingFile(t *testing.T) {
	doc := NewDocument(filepath.Join(t.TempDir(), "missing.json"))

	var v payload
	found, err := doc.Load(&v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoreLoad_RoundTrip(t *testing.T) {
	doc := NewDocument(filepath.Join(t.TempDir(), "doc.json"))

	require.NoError(t, doc.Store(payload{Name: "arms", Count: 3}))

	var v payload
	found, err := doc.Load(&v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "arms", Count: 3}, v)
}

func TestStore_WritesIndentedJSONWithTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	doc := NewDocument(path)

	require.NoError(t, doc.Store(payload{Name: "arms"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\n"))
	assert.Contains(t, string(data), "  \"name\": \"arms\"")
}

func TestStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	doc := NewDocument(filepath.Join(dir, "doc.json"))

	require.NoError(t, doc.Store(payload{Name: "a"}))
	require.NoError(t, doc.Store(payload{Name: "b"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "doc.json", entries[0].Name())
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var v payload
	_, err := NewDocument(path).Load(&v)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestLoad_ReadFailureIsNotMalformed(t *testing.T) {
	// A directory at the document path fails the read, not the parse.
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	var v payload
	_, err := NewDocument(path).Load(&v)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformed)
}

func TestAcquire_CreatesParentDirectory(t *testing.T) {
	doc := NewDocument(filepath.Join(t.TempDir(), "nested", "deep", "doc.json"))

	require.NoError(t, doc.Acquire())
	defer doc.Release()

	info, err := os.Stat(filepath.Dir(doc.Path()))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestAcquire_SecondHandleExcluded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")

	first := NewDocument(path)
	require.NoError(t, first.Acquire())
	defer first.Release()

	second := NewDocument(path)
	err := second.Acquire()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestAcquire_ReleasedLockCanBeRetaken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")

	first := NewDocument(path)
	require.NoError(t, first.Acquire())
	require.NoError(t, first.Release())

	second := NewDocument(path)
	require.NoError(t, second.Acquire())
	require.NoError(t, second.Release())
}

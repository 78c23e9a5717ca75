// ABOUTME: Tests for the asset binding table and its reconciliation pass
// ABOUTME: Covers default population, rename propagation, conflicts, and pruning

package assets

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakform/catalogd/internal/taxonomy"
)

func snapshot() []taxonomy.Section {
	return []taxonomy.Section{
		{ID: "s1", Name: "Arms", Modes: []taxonomy.Mode{{ID: "m1", Name: "Warmup"}, {ID: "m2", Name: "Stretch"}}},
		{ID: "s2", Name: "Legs", Modes: []taxonomy.Mode{{ID: "m3", Name: "Strength"}}},
	}
}

func openTestStore(t *testing.T, snap []taxonomy.Section) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assets.json")
	s, err := Open(path, snap, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestOpen_MissingFilePopulatesFromSnapshot(t *testing.T) {
	_, path := openTestStore(t, snapshot())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]map[string]*string
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Contains(t, doc, "Arms")
	require.Contains(t, doc, "Legs")
	assert.Contains(t, doc["Arms"], "Warmup")
	assert.Contains(t, doc["Arms"], "Stretch")
	assert.Nil(t, doc["Arms"]["Warmup"])
}

func TestOpen_ReconcilesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.json")
	stale := `{
		"Arms": {"Warmup": "ref-kept"},
		"Ghost": {"Anything": "ref-gone"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(stale), 0644))

	s, err := Open(path, snapshot(), nil)
	require.NoError(t, err)
	defer s.Close()

	// Existing binding survives, missing slots appear, orphans are pruned.
	ref, ok := s.Get("Arms", "Warmup")
	require.True(t, ok)
	assert.Equal(t, "ref-kept", ref)

	_, ok = s.Get("Arms", "Stretch")
	assert.False(t, ok)
	_, ok = s.Get("Legs", "Strength")
	assert.False(t, ok)
	_, ok = s.Get("Ghost", "Anything")
	assert.False(t, ok)
}

func TestReconcile_CountsRepairs(t *testing.T) {
	s, _ := openTestStore(t, snapshot())

	repairs, err := s.Reconcile(snapshot())
	require.NoError(t, err)
	assert.Zero(t, repairs)

	// Drop a section and a mode from the snapshot: both get pruned.
	smaller := []taxonomy.Section{
		{ID: "s1", Name: "Arms", Modes: []taxonomy.Mode{{ID: "m1", Name: "Warmup"}}},
	}
	repairs, err = s.Reconcile(smaller)
	require.NoError(t, err)
	assert.Equal(t, 2, repairs) // "Legs" section and "Stretch" mode
}

func TestSet(t *testing.T) {
	s, _ := openTestStore(t, snapshot())

	require.NoError(t, s.Set("Arms", "Warmup", "ref-123"))
	ref, ok := s.Get("Arms", "Warmup")
	require.True(t, ok)
	assert.Equal(t, "ref-123", ref)

	err := s.Set("Ghost", "Warmup", "x")
	assert.ErrorIs(t, err, ErrUnknownSection)
	err = s.Set("Arms", "Ghost", "x")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestGet_NeverFails(t *testing.T) {
	s, _ := openTestStore(t, nil)

	ref, ok := s.Get("Nope", "Nothing")
	assert.False(t, ok)
	assert.Empty(t, ref)
}

func TestAddSection_Idempotent(t *testing.T) {
	s, _ := openTestStore(t, nil)

	sec := taxonomy.Section{ID: "s1", Name: "Arms", Modes: []taxonomy.Mode{{ID: "m1", Name: "Warmup"}}}
	require.NoError(t, s.AddSection(sec))
	require.NoError(t, s.Set("Arms", "Warmup", "ref-1"))

	// A second add must not clobber the existing binding.
	require.NoError(t, s.AddSection(sec))
	ref, ok := s.Get("Arms", "Warmup")
	require.True(t, ok)
	assert.Equal(t, "ref-1", ref)
}

func TestRenameSection(t *testing.T) {
	s, _ := openTestStore(t, snapshot())
	require.NoError(t, s.Set("Legs", "Strength", "ref-legs"))

	require.NoError(t, s.RenameSection("Legs", "Glutes"))
	ref, ok := s.Get("Glutes", "Strength")
	require.True(t, ok)
	assert.Equal(t, "ref-legs", ref)
	_, ok = s.Get("Legs", "Strength")
	assert.False(t, ok)

	// Absent old name is a no-op.
	require.NoError(t, s.RenameSection("Ghost", "Anything"))

	// Occupied target rejects and leaves the table untouched.
	err := s.RenameSection("Glutes", "Arms")
	assert.ErrorIs(t, err, ErrNameConflict)
	ref, ok = s.Get("Glutes", "Strength")
	require.True(t, ok)
	assert.Equal(t, "ref-legs", ref)
}

func TestRenameMode(t *testing.T) {
	s, _ := openTestStore(t, snapshot())
	require.NoError(t, s.Set("Arms", "Warmup", "ref-w"))

	require.NoError(t, s.RenameMode("Arms", "Warmup", "Cooldown"))
	ref, ok := s.Get("Arms", "Cooldown")
	require.True(t, ok)
	assert.Equal(t, "ref-w", ref)
	_, ok = s.Get("Arms", "Warmup")
	assert.False(t, ok)

	// No-ops for absent section or mode.
	require.NoError(t, s.RenameMode("Ghost", "A", "B"))
	require.NoError(t, s.RenameMode("Arms", "Ghost", "B"))

	// Occupied sibling target rejects.
	err := s.RenameMode("Arms", "Cooldown", "Stretch")
	assert.ErrorIs(t, err, ErrNameConflict)
}

func TestDelete(t *testing.T) {
	s, _ := openTestStore(t, snapshot())

	require.NoError(t, s.DeleteMode("Arms", "Warmup"))
	_, ok := s.Get("Arms", "Warmup")
	assert.False(t, ok)
	require.NoError(t, s.DeleteMode("Arms", "Warmup")) // already gone

	require.NoError(t, s.DeleteSection("Arms"))
	_, ok = s.Get("Arms", "Stretch")
	assert.False(t, ok)
	require.NoError(t, s.DeleteSection("Arms")) // already gone
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.json")
	s, err := Open(path, snapshot(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Set("Arms", "Warmup", "ref-123"))
	require.NoError(t, s.Close())

	reopened, err := Open(path, snapshot(), nil)
	require.NoError(t, err)
	defer reopened.Close()

	ref, ok := reopened.Get("Arms", "Warmup")
	require.True(t, ok)
	assert.Equal(t, "ref-123", ref)
}

func TestOpen_HealsNullSectionEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Arms": null}`), 0o644))

	s, err := Open(path, snapshot(), nil)
	require.NoError(t, err)
	defer s.Close()

	// The null entry became a real section with unset slots.
	_, ok := s.Get("Arms", "Warmup")
	assert.False(t, ok)
	require.NoError(t, s.Set("Arms", "Warmup", "ref-1"))
	ref, ok := s.Get("Arms", "Warmup")
	require.True(t, ok)
	assert.Equal(t, "ref-1", ref)
}

func TestAddSection_ReplacesNullEntry(t *testing.T) {
	s, _ := openTestStore(t, snapshot())
	s.data["Back"] = nil

	sec := taxonomy.Section{ID: "s9", Name: "Back", Modes: []taxonomy.Mode{{ID: "m9", Name: "Rows"}}}
	require.NoError(t, s.AddSection(sec))
	require.NoError(t, s.Set("Back", "Rows", "ref-2"))
}

func TestAddMode_ReplacesNullEntry(t *testing.T) {
	s, _ := openTestStore(t, snapshot())
	s.data["Back"] = nil

	require.NoError(t, s.AddMode("Back", "Rows"))
	require.NoError(t, s.Set("Back", "Rows", "ref-3"))
}

// ABOUTME: Tests for the catalogd CLI bootstrap
// ABOUTME: Covers config path resolution and the failure path for corrupt taxonomy documents

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakform/catalogd/internal/taxonomy"
)

func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	content := fmt.Sprintf(`storage:
  taxonomy_path: %s
  assets_path: %s
  audit_path: %s
`,
		filepath.Join(dir, "taxonomy.json"),
		filepath.Join(dir, "assets.json"),
		filepath.Join(dir, "audit.db"))
	path := filepath.Join(dir, "catalogd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenCatalog_BuildsStack(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CATALOGD_CONFIG", writeTestConfig(t, dir))

	_, svc, cleanup, m, err := openCatalog(false)
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, m)
	assert.Empty(t, svc.Sections())
}

func TestOpenCatalog_MalformedTaxonomyFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taxonomy.json"), []byte(`{"Arms": []}`), 0o644))
	t.Setenv("CATALOGD_CONFIG", writeTestConfig(t, dir))

	// check, list, and console all exit nonzero through mustOpenCatalog on
	// this error.
	_, _, _, _, err := openCatalog(false)
	require.Error(t, err)
	assert.ErrorIs(t, err, taxonomy.ErrMalformedDocument)
}

func TestOpenCatalog_MissingConfigFails(t *testing.T) {
	t.Setenv("CATALOGD_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, _, _, _, err := openCatalog(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config error")
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	t.Setenv("CATALOGD_CONFIG", "/etc/custom/catalogd.yaml")
	assert.Equal(t, "/etc/custom/catalogd.yaml", getConfigPath())
}

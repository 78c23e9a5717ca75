// ABOUTME: Tests for configuration loading, validation, and defaults
// ABOUTME: Covers environment variable expansion and the admin allow list

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalogd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Complete(t *testing.T) {
	path := writeConfig(t, `
storage:
  taxonomy_path: /var/lib/catalogd/taxonomy.json
  assets_path: /var/lib/catalogd/assets.json
  audit_path: /var/lib/catalogd/audit.db
  media_dir: /var/lib/catalogd/media
admin:
  chat_ids:
    - 1001
    - 1002
logging:
  level: debug
  format: json
metrics:
  enabled: true
  addr: 0.0.0.0:9480
  path: /metrics
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/catalogd/taxonomy.json", cfg.Storage.TaxonomyPath)
	assert.Equal(t, "/var/lib/catalogd/media", cfg.Storage.MediaDir)
	assert.Equal(t, []int64{1001, 1002}, cfg.Admin.ChatIDs)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "0.0.0.0:9480", cfg.Metrics.Addr)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  taxonomy_path: /tmp/taxonomy.json
  assets_path: /tmp/assets.json
  audit_path: /tmp/audit.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "127.0.0.1:9480", cfg.Metrics.Addr)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("CATALOGD_TEST_DATA", "/srv/data")

	path := writeConfig(t, `
storage:
  taxonomy_path: ${CATALOGD_TEST_DATA}/taxonomy.json
  assets_path: ${CATALOGD_TEST_DATA}/assets.json
  audit_path: ${CATALOGD_TEST_DATA}/audit.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/data/taxonomy.json", cfg.Storage.TaxonomyPath)
	assert.Equal(t, "/srv/data/audit.db", cfg.Storage.AuditPath)
}

func TestLoad_UnsetEnvVarFailsValidation(t *testing.T) {
	path := writeConfig(t, `
storage:
  taxonomy_path: ${CATALOGD_TEST_UNSET_VAR}
  assets_path: /tmp/assets.json
  audit_path: /tmp/audit.db
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "taxonomy_path is required")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "storage: [not a map")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestValidate_RequiredPaths(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "missing taxonomy path",
			cfg:  Config{Storage: Storage{AssetsPath: "a", AuditPath: "b"}},
			want: "storage.taxonomy_path is required",
		},
		{
			name: "missing assets path",
			cfg:  Config{Storage: Storage{TaxonomyPath: "a", AuditPath: "b"}},
			want: "storage.assets_path is required",
		},
		{
			name: "missing audit path",
			cfg:  Config{Storage: Storage{TaxonomyPath: "a", AssetsPath: "b"}},
			want: "storage.audit_path is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIsAdmin(t *testing.T) {
	cfg := Config{Admin: Admin{ChatIDs: []int64{1001, 1002}}}
	assert.True(t, cfg.IsAdmin(1001))
	assert.True(t, cfg.IsAdmin(1002))
	assert.False(t, cfg.IsAdmin(9999))

	empty := Config{}
	assert.False(t, empty.IsAdmin(1001))
}

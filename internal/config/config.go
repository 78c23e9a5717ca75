// ABOUTME: Configuration loading and parsing for catalogd
// ABOUTME: Supports YAML files with environment variable expansion

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config represents the complete catalogd configuration
type Config struct {
	Storage Storage `yaml:"storage"`
	Admin   Admin   `yaml:"admin"`
	Logging Logging `yaml:"logging"`
	Metrics Metrics `yaml:"metrics"`
}

// Storage holds the persistence file locations
type Storage struct {
	TaxonomyPath string `yaml:"taxonomy_path"`
	AssetsPath   string `yaml:"assets_path"`
	AuditPath    string `yaml:"audit_path"`
	// MediaDir anchors relative local-file asset references
	MediaDir string `yaml:"media_dir"`
}

// Admin holds the conversations allowed to use the edit flow
type Admin struct {
	ChatIDs []int64 `yaml:"chat_ids"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Metrics holds the metrics endpoint configuration
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = "127.0.0.1:9480"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks that all required configuration fields are present.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Storage.TaxonomyPath == "" {
		return fmt.Errorf("storage.taxonomy_path is required")
	}
	if c.Storage.AssetsPath == "" {
		return fmt.Errorf("storage.assets_path is required")
	}
	if c.Storage.AuditPath == "" {
		return fmt.Errorf("storage.audit_path is required")
	}
	return nil
}

// IsAdmin reports whether the chat ID is in the admin allow list.
func (c *Config) IsAdmin(chatID int64) bool {
	for _, id := range c.Admin.ChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

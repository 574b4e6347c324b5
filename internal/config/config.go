// Package config loads the tool configuration: GDTK_* environment
// variables layered over an optional project-level .gdtk.yml.
package config

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	// Analysis.
	MaxParallelism     int           `yaml:"max_parallelism"`
	FileTimeout        time.Duration `yaml:"file_timeout"`
	CheckIndentation   bool          `yaml:"check_indentation"`
	CheckScope         bool          `yaml:"check_scope"`
	CheckArgumentTypes bool          `yaml:"check_argument_types"`

	// Exit-code policy.
	FailOnWarning bool `yaml:"fail_on_warning"`
	FailOnHint    bool `yaml:"fail_on_hint"`

	// Discovery.
	Exclude []string `yaml:"exclude"`

	// Formatting.
	IndentStyle string `yaml:"indent_style"` // tabs or spaces
	IndentSize  int    `yaml:"indent_size"`
	LineEnding  string `yaml:"line_ending"` // lf, crlf or platform

	// Persisted cache.
	CacheDSN string `yaml:"cache_dsn"`
	Debug    bool   `yaml:"debug"`
}

// ProjectFileName is looked up at the project root.
const ProjectFileName = ".gdtk.yml"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MaxParallelism:   0, // analyzer picks NumCPU
		FileTimeout:      30 * time.Second,
		CheckIndentation: true,
		CheckScope:       true,
		IndentStyle:      "tabs",
		IndentSize:       4,
		LineEnding:       "lf",
	}
}

// Load builds the effective configuration for a project root:
// defaults, then .gdtk.yml when present, then environment overrides.
func Load(root string) (*Config, error) {
	cfg := Default()
	path := filepath.Join(root, ProjectFileName)
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv layers GDTK_* variables over the file configuration.
func (c *Config) applyEnv() {
	if v := os.Getenv("GDTK_MAX_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxParallelism = n
		}
	}
	if v := os.Getenv("GDTK_FILE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.FileTimeout = d
		}
	}
	if v := os.Getenv("GDTK_CACHE_DSN"); v != "" {
		c.CacheDSN = v
	}
	if v := os.Getenv("GDTK_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
}

// DefaultCacheDSN places the local cache database under the user
// cache directory, keyed by the project path so projects never share
// state.
func DefaultCacheDSN(projectRoot string) string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = filepath.Clean(projectRoot)
	}
	sum := sha256.Sum256([]byte(abs))
	key := fmt.Sprintf("%s-%x", filepath.Base(abs), sum[:6])
	return filepath.Join(base, "gdtk", key, "cache.db")
}

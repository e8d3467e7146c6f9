// Package config provides configuration loading for pydeps.
//
// Configuration is read from .pydeps/config.yml (or .yaml) under the project
// root. Environment variables prefixed with PYDEPS_ override file values, with
// nested keys joined by underscores (PYDEPS_SCAN_WORKERS). An optional .env file
// is loaded into the environment before any of this happens.
package config

import (
	"path/filepath"
	"time"
)

// DirName is the per-project directory holding config and scan history.
const DirName = ".pydeps"

// Config represents the complete pydeps configuration.
type Config struct {
	Paths   PathsConfig   `yaml:"paths" mapstructure:"paths"`
	Scan    ScanConfig    `yaml:"scan" mapstructure:"scan"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
}

// PathsConfig defines which files are scanned and which are ignored.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for Python sources
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to skip
}

// ScanConfig controls the project scan.
type ScanConfig struct {
	Workers       int  `yaml:"workers" mapstructure:"workers"`               // concurrent file analyses
	ExcludeLocal  bool `yaml:"exclude_local" mapstructure:"exclude_local"`   // drop names that resolve inside the project
	ExcludeStdlib bool `yaml:"exclude_stdlib" mapstructure:"exclude_stdlib"` // drop standard-library names
}

// CacheConfig controls the in-memory per-file result cache.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	MaxEntries int           `yaml:"max_entries" mapstructure:"max_entries"`
	TTL        time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// StorageConfig controls where scan history is kept.
type StorageConfig struct {
	DBPath   string `yaml:"db_path" mapstructure:"db_path"`     // empty means <root>/.pydeps/history.db
	KeepRuns int    `yaml:"keep_runs" mapstructure:"keep_runs"` // scans kept per root, 0 keeps all
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Debounce    time.Duration `yaml:"debounce" mapstructure:"debounce"`
	MetricsAddr string        `yaml:"metrics_addr" mapstructure:"metrics_addr"` // empty disables the endpoint
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: []string{
				"**/*.py",
				"**/*.pyw",
			},
			Ignore: []string{
				".git/**",
				"venv/**",
				".venv/**",
				"env/**",
				"**/__pycache__/**",
				"**/site-packages/**",
				"build/**",
				"dist/**",
				"output/**",
				"node_modules/**",
				"*.egg-info/**",
			},
		},
		Scan: ScanConfig{
			Workers:       4,
			ExcludeLocal:  true,
			ExcludeStdlib: true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 10000,
			TTL:        30 * time.Minute,
		},
		Storage: StorageConfig{
			DBPath:   "",
			KeepRuns: 20,
		},
		Watch: WatchConfig{
			Debounce:    500 * time.Millisecond,
			MetricsAddr: "",
		},
	}
}

// DBPath returns the history database path for a project root.
func (c *Config) DBPath(rootDir string) string {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath
	}
	return filepath.Join(rootDir, DirName, "history.db")
}

// SourceExtensions extracts unique file extensions from the include patterns.
// Returns extensions with leading dot (e.g., []string{".py", ".pyw"}).
func (c *Config) SourceExtensions() []string {
	seen := make(map[string]bool)
	var extensions []string

	for _, pattern := range c.Paths.Include {
		ext := extractExtension(pattern)
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		extensions = append(extensions, ext)
	}

	return extensions
}

// extractExtension extracts the file extension from a glob pattern.
// Returns empty string if pattern doesn't end in a simple *.ext form.
// Examples: "**/*.py" -> ".py", "*.pyw" -> ".pyw"
func extractExtension(pattern string) string {
	for i := len(pattern) - 1; i >= 1; i-- {
		if pattern[i] == '.' && pattern[i-1] == '*' {
			return pattern[i:]
		}
	}
	return ""
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for vfsindex.
//
// Configuration is loaded from a single file specified by:
//   - VFSINDEX_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures deterministic,
// auditable configuration with no hidden overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for vfsindex.
type Config struct {
	// Analysis tunes the Analyzer's worker pool.
	Analysis AnalysisConfig `yaml:"analysis"`

	// Staging configures where scratch directories are allocated.
	Staging StagingConfig `yaml:"staging"`

	// Cache configures the binary cache file used to skip unchanged files
	// across re-scans.
	Cache CacheConfig `yaml:"cache"`
}

// AnalysisConfig tunes how many files the Analyzer examines concurrently.
type AnalysisConfig struct {
	// Parallelism is the number of worker goroutines analyzing paths
	// concurrently. Default: 8.
	Parallelism int `yaml:"parallelism"`

	// QueueDepth bounds the number of paths buffered ahead of the worker
	// pool. Default: 1024.
	QueueDepth int `yaml:"queue_depth"`
}

// StagingConfig configures the scratch space used to materialize nested
// archive contents on disk.
type StagingConfig struct {
	// Root is the directory under which every Stage and every Analyze
	// call allocates a fresh, randomly named subdirectory.
	// Default: ${HOME}/.cache/vfsindex/vfs_staging
	Root string `yaml:"root"`
}

// CacheConfig configures the binary index cache.
type CacheConfig struct {
	// Path is the file that WriteToFile/IntegrateFromFile read and write.
	// Default: ${HOME}/.cache/vfsindex/index.cache
	Path string `yaml:"path"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file. They
// exist primarily to ensure all fields have sensible zero-values, not as a
// fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "vfsindex")

	return &Config{
		Analysis: AnalysisConfig{
			Parallelism: 8,
			QueueDepth:  1024,
		},
		Staging: StagingConfig{
			Root: filepath.Join(defaultRoot, "vfs_staging"),
		},
		Cache: CacheConfig{
			Path: filepath.Join(defaultRoot, "index.cache"),
		},
	}
}

// Load loads configuration from the VFSINDEX_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if VFSINDEX_CONFIG is not set, this
// fails. This ensures deterministic, auditable configuration with no hidden
// overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("VFSINDEX_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("VFSINDEX_CONFIG environment variable not set; " +
			"set it to the path of your vfsindex.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. The only expansion
// performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Staging.Root = expandVars(c.Staging.Root, vars)
	c.Cache.Path = expandVars(c.Cache.Path, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Analysis.Parallelism <= 0 {
		errs = append(errs, fmt.Errorf("analysis.parallelism must be positive, got %d", c.Analysis.Parallelism))
	}
	if c.Analysis.QueueDepth <= 0 {
		errs = append(errs, fmt.Errorf("analysis.queue_depth must be positive, got %d", c.Analysis.QueueDepth))
	}
	if c.Staging.Root == "" {
		errs = append(errs, fmt.Errorf("staging.root is required"))
	}
	if c.Cache.Path == "" {
		errs = append(errs, fmt.Errorf("cache.path is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the staging root and the cache file's parent
// directory if they don't already exist.
func (c *Config) EnsurePaths() error {
	dirs := []string{
		c.Staging.Root,
		filepath.Dir(c.Cache.Path),
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	return nil
}

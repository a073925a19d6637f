// Package config loads and validates server configuration. Configuration is
// a single JSON document; paths derive from a common data prefix so an
// operator relocates everything by changing one field.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Config is the server configuration.
type Config struct {
	// DataPrefix is the root under which all server state lives. A leading
	// "~/" expands to the user's home directory.
	DataPrefix string `json:"data_prefix"`

	// Suffixes appended to DataPrefix by the accessor methods.
	RecordDirectorySuffix string `json:"record_directory_suffix"`
	AssetsDirectorySuffix string `json:"assets_directory_suffix"`

	HTTPPort int  `json:"http_port"`
	GUI      bool `json:"gui"`
	Debug    bool `json:"debug"`

	// MapSeed fixes map generation for every room when nonzero; zero seeds
	// each room randomly.
	MapSeed int64 `json:"map_seed"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		DataPrefix:            "~/.hexcoop/",
		RecordDirectorySuffix: "game_records/",
		AssetsDirectorySuffix: "assets/",
		HTTPPort:              8080,
	}
}

// Load reads a configuration file, filling unset fields from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as indented JSON.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.DataPrefix == "" {
		return fmt.Errorf("%w: data_prefix must be set", ErrInvalidConfig)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("%w: http_port %d out of range", ErrInvalidConfig, c.HTTPPort)
	}
	return nil
}

// RecordDirectory returns the expanded path for game event records.
func (c *Config) RecordDirectory() string {
	return expandPath(c.DataPrefix + c.RecordDirectorySuffix)
}

// AssetsDirectory returns the expanded path for served assets.
func (c *Config) AssetsDirectory() string {
	return expandPath(c.DataPrefix + c.AssetsDirectorySuffix)
}

// expandPath resolves a leading "~/" against the user's home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete tetsu configuration.
type Config struct {
	// Backend connection.
	Backend BackendConfig `toml:"backend"`

	// Chat parameters forwarded with every request.
	Chat ChatConfig `toml:"chat"`

	// UI appearance.
	UI UIConfig `toml:"ui"`

	// Storage holds persistence settings.
	Storage StorageConfig `toml:"storage"`

	// LogLevel is debug, info, warn, or error.
	LogLevel string `toml:"log_level"`
}

// BackendConfig describes how to reach the backend process.
type BackendConfig struct {
	// URL of the backend API.
	URL string `toml:"url"`

	// TimeoutSecs bounds control requests. Streams are unbounded.
	TimeoutSecs int `toml:"timeout_secs"`
}

// ChatConfig holds the model parameters.
type ChatConfig struct {
	Model        string  `toml:"model"`
	Provider     string  `toml:"provider"`
	Temperature  float64 `toml:"temperature"`
	MaxTokens    int     `toml:"max_tokens"`
	SystemPrompt string  `toml:"system_prompt"`
	ContextMode  string  `toml:"context_mode"`

	// ContextLimit is the model's context window in tokens, for budget
	// warnings.
	ContextLimit int `toml:"context_limit"`

	// APIKey is normally supplied via TETSU_API_KEY rather than the
	// config file.
	APIKey string `toml:"api_key"`
}

// UIConfig holds appearance settings.
type UIConfig struct {
	// Theme is the glamour/chroma style name.
	Theme string `toml:"theme"`

	// ShowUsage toggles the token counter in the status bar.
	ShowUsage bool `toml:"show_usage"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	// Path of the conversation database. Empty selects the default
	// under the config directory; "off" disables persistence.
	Path string `toml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:         "http://127.0.0.1:3344",
			TimeoutSecs: 30,
		},
		Chat: ChatConfig{
			Model:        "claude-sonnet-4-5-20250929",
			Temperature:  0.7,
			ContextLimit: 131072,
		},
		UI: UIConfig{
			Theme:     "monokai",
			ShowUsage: true,
		},
		LogLevel: "info",
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the tetsu configuration directory (~/.tetsu).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".tetsu"), nil
}

// Path returns the configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DatabasePath resolves the conversation database location: the
// configured path, or tetsu.db under the config directory. Returns ""
// when persistence is disabled.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.Path == "off" {
		return "", nil
	}
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tetsu.db"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration file if present, applies environment
// overrides, and validates. A missing file is not an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from TETSU_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("TETSU_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("TETSU_MODEL"); v != "" {
		c.Chat.Model = v
	}
	if v := os.Getenv("TETSU_PROVIDER"); v != "" {
		c.Chat.Provider = v
	}
	if v := os.Getenv("TETSU_API_KEY"); v != "" {
		c.Chat.APIKey = v
	}
	if v := os.Getenv("TETSU_SYSTEM_PROMPT"); v != "" {
		c.Chat.SystemPrompt = v
	}
	if v := os.Getenv("TETSU_CONTEXT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Chat.ContextLimit = n
		}
	}
	if v := os.Getenv("TETSU_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Save writes the configuration as TOML, creating the directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every validation failure.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks field values and returns every problem at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Backend.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{"backend.url", "must be an absolute URL"})
	}
	if c.Backend.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{"backend.timeout_secs", "must be positive"})
	}
	if c.Chat.Model == "" {
		errs = append(errs, ValidationError{"chat.model", "must not be empty"})
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		errs = append(errs, ValidationError{"chat.temperature", "must be between 0 and 2"})
	}
	if c.Chat.MaxTokens < 0 {
		errs = append(errs, ValidationError{"chat.max_tokens", "must not be negative"})
	}
	if c.Chat.ContextLimit <= 0 {
		errs = append(errs, ValidationError{"chat.context_limit", "must be positive"})
	}
	if !validLogLevels[c.LogLevel] {
		errs = append(errs, ValidationError{"log_level", "must be debug, info, warn, or error"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for routinechat.
//
// Supports TOML, YAML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.routinechat/config.toml
//   - ~/.routinechat/config.yaml (or config.yml)
//   - ~/.routinechat/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/routinechat/internal/cloud"
	"github.com/jeranaias/routinechat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// CurrentVersion is written into generated config files.
const CurrentVersion = "1"

// Config represents the complete routinechat configuration.
type Config struct {
	Version string `toml:"version" json:"version" yaml:"version"`

	// Remote worker configuration
	Remote RemoteConfig `toml:"remote" json:"remote" yaml:"remote"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui" yaml:"ui"`

	// Diagnostic logging
	Log LogConfig `toml:"log" json:"log" yaml:"log"`
}

// RemoteConfig configures the chat-completion worker.
type RemoteConfig struct {
	// Endpoint is the worker URL receiving POST {messages:[...]}.
	Endpoint string `toml:"endpoint" json:"endpoint" yaml:"endpoint" env:"ROUTINECHAT_ENDPOINT"`

	// SystemPrompt is prepended to every request. Empty selects the built-in prompt.
	SystemPrompt string `toml:"system_prompt" json:"system_prompt" yaml:"system_prompt" env:"ROUTINECHAT_SYSTEM_PROMPT"`

	// TimeoutSecs bounds a single exchange.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs" env:"ROUTINECHAT_TIMEOUT"`

	// RateLimitPerMinute paces requests. 0 disables pacing.
	RateLimitPerMinute int `toml:"rate_limit_per_minute" json:"rate_limit_per_minute" yaml:"rate_limit_per_minute" env:"ROUTINECHAT_RATE_LIMIT"`
}

// Timeout returns TimeoutSecs as a duration.
func (r RemoteConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSecs) * time.Second
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	Theme string `toml:"theme" json:"theme" yaml:"theme" env:"ROUTINECHAT_THEME"` // "dark", "light", "auto"

	// KeepHistory keeps earlier turns visible instead of clearing the
	// surface on every submission.
	KeepHistory bool `toml:"keep_history" json:"keep_history" yaml:"keep_history" env:"ROUTINECHAT_KEEP_HISTORY"`

	// Greeting overrides the greeting entry shown on mount.
	Greeting string `toml:"greeting" json:"greeting" yaml:"greeting"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level string `toml:"level" json:"level" yaml:"level" env:"ROUTINECHAT_LOG_LEVEL"`

	// File receives the log. Empty selects ~/.routinechat/routinechat.log,
	// "-" selects stderr.
	File string `toml:"file" json:"file" yaml:"file" env:"ROUTINECHAT_LOG_FILE"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Remote: RemoteConfig{
			Endpoint:           cloud.DefaultEndpoint,
			SystemPrompt:       cloud.DefaultSystemPrompt,
			TimeoutSecs:        int(cloud.DefaultTimeout / time.Second),
			RateLimitPerMinute: 0,
		},
		UI: UIConfig{
			Theme:       "auto",
			KeepHistory: false,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// configFileNames lists the files Load looks for, in order.
var configFileNames = []string{"config.toml", "config.yaml", "config.yml", "config.json"}

// ConfigDir returns the routinechat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".routinechat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultLogPath returns the log file used when log.file is empty.
func DefaultLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "routinechat.log"), nil
}

// FindConfigFile returns the first existing config file in the config
// directory, or "" when there is none.
func FindConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the first config file found, falling back
// to defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := FindConfigFile()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from path with full validation.
// The format is chosen by extension; anything else is read as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = LoadJSON(cfg, path)
	case ".yaml", ".yml":
		err = LoadYAML(cfg, path)
	default:
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	return finish(cfg)
}

// finish applies defaults, environment overrides and validation.
func finish(cfg *Config) (*Config, error) {
	fillDefaults(cfg)
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadYAML decodes a YAML file into cfg.
func LoadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Remote
	if strings.TrimSpace(cfg.Remote.Endpoint) == "" {
		cfg.Remote.Endpoint = defaults.Remote.Endpoint
	}
	if strings.TrimSpace(cfg.Remote.SystemPrompt) == "" {
		cfg.Remote.SystemPrompt = defaults.Remote.SystemPrompt
	}
	if cfg.Remote.TimeoutSecs == 0 {
		cfg.Remote.TimeoutSecs = defaults.Remote.TimeoutSecs
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// ApplyEnvOverrides applies ROUTINECHAT_* environment variables:
//   - ROUTINECHAT_ENDPOINT: overrides remote.endpoint
//   - ROUTINECHAT_SYSTEM_PROMPT: overrides remote.system_prompt
//   - ROUTINECHAT_TIMEOUT: overrides remote.timeout_secs
//   - ROUTINECHAT_RATE_LIMIT: overrides remote.rate_limit_per_minute
//   - ROUTINECHAT_THEME: overrides ui.theme
//   - ROUTINECHAT_KEEP_HISTORY: overrides ui.keep_history
//   - ROUTINECHAT_LOG_LEVEL: overrides log.level
//   - ROUTINECHAT_LOG_FILE: overrides log.file
func (c *Config) ApplyEnvOverrides() error {
	if err := env.Parse(c); err != nil {
		return &LoadError{Source: "environment", Err: err}
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	err := util.AtomicWrite(path, 0600, func(w io.Writer) error {
		fmt.Fprintln(w, "# routinechat configuration file")
		fmt.Fprintln(w, "# Generated by routinechat - edit with care")
		fmt.Fprintln(w, "#")
		fmt.Fprintln(w, "# Environment variables (ROUTINECHAT_*) override these values.")
		fmt.Fprintln(w, "")

		if err := toml.NewEncoder(w).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Remote
	if u, err := url.Parse(strings.TrimSpace(c.Remote.Endpoint)); err != nil || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "remote.endpoint",
			Message: fmt.Sprintf("invalid URL '%s'", c.Remote.Endpoint),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "remote.endpoint",
			Message: fmt.Sprintf("unsupported scheme '%s', must be http or https", u.Scheme),
		})
	}
	if c.Remote.TimeoutSecs < 1 || c.Remote.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "remote.timeout_secs",
			Message: fmt.Sprintf("must be between 1 and 600, got %d", c.Remote.TimeoutSecs),
		})
	}
	if c.Remote.RateLimitPerMinute < 0 {
		errs = append(errs, ValidationError{
			Field:   "remote.rate_limit_per_minute",
			Message: "must not be negative",
		})
	}

	// UI
	validThemes := map[string]bool{"auto": true, "dark": true, "light": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	// Log
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s'", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// LoadError reports a config source that could not be read or decoded.
// Source is a file path or "environment".
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load config from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err stems from an unreadable config source.
func IsLoadError(err error) bool {
	var lerr *LoadError
	return errors.As(err, &lerr)
}

// IsValidationError reports whether err carries validation errors.
func IsValidationError(err error) bool {
	var verrs ValidateErrors
	return errors.As(err, &verrs)
}

// =============================================================================
// CLONE / STRING
// =============================================================================

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}

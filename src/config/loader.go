package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Environment variables consulted after the config files.
const (
	EnvAPIKey  = "OPENROUTER_API_KEY"
	EnvModel   = "RUNE_MODEL"
	EnvBaseURL = "OPENROUTER_BASE_URL"
)

// Loader handles loading and merging configurations from multiple sources
type Loader struct {
	Fs afero.Fs
	// UserConfig and ProjectConfig are read in that order; missing files
	// are skipped.
	UserConfig    string
	ProjectConfig string
	Getenv        func(string) string

	validator *Validator
}

// NewLoader creates a loader reading the user config and the project config
// of root from the OS filesystem.
func NewLoader(root string) *Loader {
	return &Loader{
		Fs:            afero.NewOsFs(),
		UserConfig:    UserConfigPath(),
		ProjectConfig: ProjectConfigPath(root),
		Getenv:        os.Getenv,
		validator:     NewValidator(),
	}
}

// Load loads configuration from all sources and merges them. Later sources
// override only the fields they set.
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	for _, path := range []string{l.UserConfig, l.ProjectConfig} {
		if path == "" {
			continue
		}
		if err := l.mergeFile(config, path); err != nil {
			return nil, err
		}
	}

	l.applyEnvironmentOverrides(config)

	if err := l.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// Validate checks config without loading anything.
func (l *Loader) Validate(config *Config) error {
	if l.validator == nil {
		l.validator = NewValidator()
	}
	return l.validator.Validate(config)
}

func (l *Loader) mergeFile(config *Config, path string) error {
	data, err := afero.ReadFile(l.Fs, path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (l *Loader) applyEnvironmentOverrides(config *Config) {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvAPIKey); v != "" {
		config.API.APIKey = v
	}
	if v := getenv(EnvModel); v != "" {
		config.Model = v
	}
	if v := getenv(EnvBaseURL); v != "" {
		config.API.BaseURL = v
	}
}

// SaveFile writes config as indented JSON, creating parent directories.
func (l *Loader) SaveFile(config *Config, path string) error {
	if err := l.Validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := l.Fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	saved := *config
	saved.API.APIKey = ""
	data, err := json.MarshalIndent(&saved, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := afero.WriteFile(l.Fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

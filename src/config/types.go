package config

import (
	"fmt"
	"time"
)

// Config represents the complete configuration for rune
type Config struct {
	// Model is the OpenRouter model id, e.g. "google/gemini-2.5-flash".
	Model string `json:"model" validate:"required,model_id"`

	API     APIConfig     `json:"api"`
	Turn    TurnConfig    `json:"turn"`
	Tools   ToolsConfig   `json:"tools"`
	Session SessionConfig `json:"session"`
	Display DisplayConfig `json:"display"`
}

// APIConfig holds API-related configuration
type APIConfig struct {
	// BaseURL overrides the default API endpoint
	BaseURL string `json:"base_url,omitempty" validate:"omitempty,url"`

	// APIKey for authentication. Usually taken from OPENROUTER_API_KEY.
	APIKey string `json:"api_key,omitempty"`

	// Timeout for API requests, as a Go duration string
	Timeout string `json:"timeout,omitempty" validate:"omitempty,duration"`

	// RetryCount is the number of attempts for failed requests
	RetryCount int `json:"retry_count" validate:"min=0,max=10"`
}

// TurnConfig bounds a single turn.
type TurnConfig struct {
	// RequestLimit caps model requests per turn. -1 disables the cap.
	RequestLimit     int `json:"request_limit" validate:"min=-1"`
	MaxParallelTools int `json:"max_parallel_tools" validate:"min=1,max=64"`
}

// ToolsConfig configures the built-in tools.
type ToolsConfig struct {
	CommandTimeout string `json:"command_timeout" validate:"required,duration"`
	PythonBinary   string `json:"python_binary" validate:"required"`
	PythonTimeout  string `json:"python_timeout" validate:"required,duration"`
	FetchMaxBytes  int64  `json:"fetch_max_bytes" validate:"min=1024"`
}

// SessionConfig selects where sessions are kept.
type SessionConfig struct {
	Backend     string `json:"backend" validate:"oneof=json sqlite"`
	Dir         string `json:"dir" validate:"required"`
	SnapshotDir string `json:"snapshot_dir" validate:"required"`
	// DatabasePath is used by the sqlite backend.
	DatabasePath string `json:"database_path,omitempty"`
}

// DisplayConfig controls console rendering.
type DisplayConfig struct {
	Markdown         bool `json:"markdown"`
	ShowThinking     bool `json:"show_thinking"`
	MaxResultPreview int  `json:"max_result_preview" validate:"min=20"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// APITimeout returns the parsed API timeout, zero when unset.
func (c *Config) APITimeout() time.Duration {
	return mustDuration(c.API.Timeout)
}

// CommandTimeout returns the default run_command timeout.
func (c *Config) CommandTimeout() time.Duration {
	return mustDuration(c.Tools.CommandTimeout)
}

// PythonTimeout returns the default run_python timeout.
func (c *Config) PythonTimeout() time.Duration {
	return mustDuration(c.Tools.PythonTimeout)
}

// mustDuration parses a duration already checked by the validator.
func mustDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

package config

import (
	"path/filepath"
)

const DefaultModel = "google/gemini-2.5-flash"

// DefaultConfig returns a default configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Model: DefaultModel,
		API: APIConfig{
			Timeout:    "120s",
			RetryCount: 3,
		},
		Turn: TurnConfig{
			RequestLimit:     1000,
			MaxParallelTools: 4,
		},
		Tools: ToolsConfig{
			CommandTimeout: "60s",
			PythonBinary:   "python3",
			PythonTimeout:  "30s",
			FetchMaxBytes:  5 * 1024 * 1024,
		},
		Session: SessionConfig{
			Backend:      "json",
			Dir:          filepath.Join(ProjectDirName, "sessions"),
			SnapshotDir:  filepath.Join(ProjectDirName, "snapshots"),
			DatabasePath: DefaultDatabasePath(),
		},
		Display: DisplayConfig{
			Markdown:         true,
			MaxResultPreview: 200,
		},
	}
}

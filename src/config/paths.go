package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	AppName        = "rune"
	ConfigFileName = "config.json"
	// ProjectDirName holds per-project config and sessions.
	ProjectDirName = ".rune"
)

// UserConfigPath returns the user config file under XDG_CONFIG_HOME.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, ConfigFileName)
}

// ProjectConfigPath returns the project config file inside root.
func ProjectConfigPath(root string) string {
	return filepath.Join(root, ProjectDirName, ConfigFileName)
}

// DefaultDatabasePath returns the sqlite session database under XDG_STATE_HOME.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.StateHome, AppName, "sessions.db")
}

// DefaultLogPath returns the JSON log file under XDG_STATE_HOME.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, AppName, "rune.log")
}

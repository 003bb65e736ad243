package config

import (
	"os"
	"path/filepath"
)

// XDGConfigHome returns $XDG_CONFIG_HOME or ~/.config.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGStateHome returns $XDG_STATE_HOME or ~/.local/state.
func XDGStateHome() string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "state")
}

// DefaultConfigPath is where the TOML config lives unless --config says otherwise.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "studyterm", "config.toml")
}

// DefaultLogPath is the rotated log file.
func DefaultLogPath() string {
	return filepath.Join(XDGStateHome(), "studyterm", "studyterm.log")
}

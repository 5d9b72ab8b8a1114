package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirEnvKey overrides the config directory, mostly for tests and
	// side-by-side installs.
	DirEnvKey = "BELLHOP_CONFIG_DIR"

	appName     = "bellhop"
	logName     = "bellhop.log"
	alertsName  = "alerts.json"
	sessionName = "session.json"
)

// Dir resolves the config directory: $BELLHOP_CONFIG_DIR, then
// $XDG_CONFIG_HOME/bellhop, then ~/.config/bellhop.
func Dir() (string, error) {
	if dir := os.Getenv(DirEnvKey); dir != "" {
		return dir, nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// EnsureDir is Dir, created with owner-only permissions if missing.
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", appName, err)
	}
	return dir, nil
}

// Log is the TUI's log file. The directory is created so the file can be
// opened right away.
func Log() (string, error) {
	dir, err := EnsureDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, logName), nil
}

func Alerts() (string, error) {
	return inDir(alertsName)
}

func Session() (string, error) {
	return inDir(sessionName)
}

func inDir(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

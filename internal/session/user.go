package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/bellhop/internal/paths"
	"github.com/garrettladley/bellhop/internal/storage"
)

// User is the logged-in user as recorded by the platform's login flow.
type User struct {
	ID   storage.ID `json:"id"`
	Name string     `json:"name,omitempty"`
}

// PathOrDefault returns path, or the session file in the bellhop config
// dir when path is empty.
func PathOrDefault(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return paths.Session()
}

// Load reads the session file at path. A missing file is not an error: it
// yields the zero User, meaning no user is logged in.
func Load(path string) (User, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return User{}, nil
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to read session file: %w", err)
	}

	var u User
	if err := go_json.Unmarshal(data, &u); err != nil {
		return User{}, fmt.Errorf("failed to parse session file: %w", err)
	}
	return u, nil
}

// Save writes u to path, creating the parent directory if needed.
func Save(path string, u User) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := go_json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Remove deletes the session file. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// Resolve picks the current user id: override wins, then the session file at
// path. An empty result means no user could be resolved.
func Resolve(override string, path string) (storage.ID, error) {
	if override != "" {
		return storage.ID(override), nil
	}
	path, err := PathOrDefault(path)
	if err != nil {
		return "", err
	}

	u, err := Load(path)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

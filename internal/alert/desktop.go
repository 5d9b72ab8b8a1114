package alert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gen2brain/beeep"
	go_json "github.com/goccy/go-json"
)

// PromptFunc asks the user whether alerts may be shown.
type PromptFunc func(ctx context.Context) (bool, error)

type NotifyFunc func(title string, body string) error

// Desktop shows OS notifications and persists the permission decision as
// JSON at path, so the user is asked at most once.
type Desktop struct {
	path   string
	prompt PromptFunc
	notify NotifyFunc

	mu     sync.Mutex
	perm   Permission
	loaded bool
}

var _ Alerter = (*Desktop)(nil)

type DesktopOption func(*Desktop)

// WithNotifier replaces the OS notification call.
func WithNotifier(fn NotifyFunc) DesktopOption {
	return func(d *Desktop) { d.notify = fn }
}

func NewDesktop(path string, prompt PromptFunc, opts ...DesktopOption) *Desktop {
	d := &Desktop{
		path:   path,
		prompt: prompt,
		notify: func(title string, body string) error {
			return beeep.Notify(title, body, "")
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type permissionFile struct {
	Permission Permission `json:"permission"`
}

func (d *Desktop) Permission() Permission {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loadLocked()
	return d.perm
}

func (d *Desktop) RequestPermission(ctx context.Context) (Permission, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.loadLocked()
	if d.perm != Undetermined {
		return d.perm, nil
	}
	if d.prompt == nil {
		return Undetermined, ErrNoPrompt
	}

	allowed, err := d.prompt(ctx)
	if err != nil {
		return Undetermined, fmt.Errorf("prompting for alert permission: %w", err)
	}

	perm := Denied
	if allowed {
		perm = Granted
	}
	if err := d.save(perm); err != nil {
		return Undetermined, err
	}
	d.perm = perm
	return perm, nil
}

func (d *Desktop) Show(title string, body string) error {
	if d.Permission() != Granted {
		return ErrNotPermitted
	}
	if err := d.notify(title, body); err != nil {
		return fmt.Errorf("showing alert: %w", err)
	}
	return nil
}

// loadLocked reads the stored decision once. A missing or unreadable file
// leaves the permission Undetermined.
func (d *Desktop) loadLocked() {
	if d.loaded {
		return
	}
	d.loaded = true

	data, err := os.ReadFile(d.path)
	if err != nil {
		return
	}
	var f permissionFile
	if err := go_json.Unmarshal(data, &f); err != nil {
		return
	}
	d.perm = f.Permission
}

func (d *Desktop) save(perm Permission) error {
	data, err := go_json.Marshal(permissionFile{Permission: perm})
	if err != nil {
		return fmt.Errorf("failed to marshal permission: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(d.path), 0o700); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(d.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write permission: %w", err)
	}
	return nil
}

// Package alert shows local desktop alerts behind a one-time permission
// decision.
package alert

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotPermitted = errors.New("alerts not permitted")
	ErrNoPrompt     = errors.New("no permission prompt configured")
)

type Permission uint8

const (
	Undetermined Permission = iota
	Granted
	Denied
)

func (p Permission) String() string {
	switch p {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "undetermined"
	}
}

func (p Permission) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Permission) UnmarshalText(text []byte) error {
	switch string(text) {
	case "granted":
		*p = Granted
	case "denied":
		*p = Denied
	case "undetermined", "":
		*p = Undetermined
	default:
		return fmt.Errorf("unknown permission %q", text)
	}
	return nil
}

// Alerter is the local alert surface. RequestPermission asks the user only
// while the permission is Undetermined; afterwards it returns the stored
// decision.
type Alerter interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Show(title string, body string) error
}

// Nop never shows anything.
type Nop struct{}

var _ Alerter = Nop{}

func (Nop) Permission() Permission { return Denied }

func (Nop) RequestPermission(context.Context) (Permission, error) { return Denied, nil }

func (Nop) Show(string, string) error { return nil }

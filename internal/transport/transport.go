// Package transport defines the capability set shared by every push
// transport the notification controller can drive.
package transport

import (
	"context"
	"errors"

	"github.com/garrettladley/bellhop/internal/storage"
)

var ErrNotConnected = errors.New("transport not connected")

// Client delivers pushed notifications to registered listeners.
//
// Connect returns nil once the transport can receive pushes and an error if
// the handshake cannot be completed. Connecting an already connected client
// returns nil without opening a second connection. Disconnect stops the
// connection and any pending reconnect and is a no-op when already
// disconnected.
type Client interface {
	Connect(ctx context.Context) error
	AddListener(fn func(storage.Notification)) func()
	Disconnect() error
	Kind() Kind
}

type Kind uint8

const (
	KindNone Kind = iota
	KindPrimary
	KindFallback
)

func (k Kind) String() string {
	switch k {
	case KindPrimary:
		return "primary"
	case KindFallback:
		return "fallback"
	default:
		return "none"
	}
}

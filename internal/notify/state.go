package notify

import (
	"slices"

	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/transport"
)

type Status uint8

const (
	StatusDisconnected Status = iota
	StatusConnected
)

func (s Status) String() string {
	if s == StatusConnected {
		return "connected"
	}
	return "disconnected"
}

// State is the controller's view of the user's notifications. UnreadCount
// always equals the number of unread entries in Notifications.
type State struct {
	Notifications []storage.Notification
	UnreadCount   int
	Status        Status
	Transport     transport.Kind
}

func (s State) clone() State {
	s.Notifications = slices.Clone(s.Notifications)
	if s.Notifications == nil {
		s.Notifications = []storage.Notification{}
	}
	return s
}

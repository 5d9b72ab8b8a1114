package tui

import (
	"github.com/garrettladley/bellhop/internal/notify"
	"github.com/garrettladley/bellhop/internal/tui/page/splash"
)

type SplashTickMsg = splash.TickMsg

// StateMsg carries a state published by the controller.
type StateMsg struct {
	State notify.State
}

// BridgeClosedMsg is sent once the bridge stops delivering states.
type BridgeClosedMsg struct{}

type action string

const (
	actionRefresh     action = "refresh"
	actionMarkRead    action = "mark read"
	actionMarkAllRead action = "mark all read"
	actionClear       action = "clear"
)

// ActionDoneMsg reports the outcome of a user-triggered write.
type ActionDoneMsg struct {
	Action action
	Err    error
}

// ActivatedMsg is sent once the controller's Activate returns.
type ActivatedMsg struct {
	Err error
}

package tui

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/garrettladley/bellhop/internal/notify"
)

// Bridge hands controller states to the program. Only the latest undelivered
// state is kept, so a slow UI never blocks the controller.
type Bridge struct {
	ch chan notify.State
}

func NewBridge() *Bridge {
	return &Bridge{ch: make(chan notify.State, 1)}
}

// Push replaces any pending state with s. It is meant to be registered with
// notify.Controller.Subscribe, which serializes calls.
func (b *Bridge) Push(s notify.State) {
	for {
		select {
		case b.ch <- s:
			return
		default:
		}
		select {
		case <-b.ch:
		default:
		}
	}
}

// ListenStateCmd waits for the next state. It must be re-issued after every
// StateMsg to keep listening.
func ListenStateCmd(ctx context.Context, b *Bridge) tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-b.ch:
			return StateMsg{State: s}
		case <-ctx.Done():
			return BridgeClosedMsg{}
		}
	}
}

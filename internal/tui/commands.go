package tui

import (
	"context"

	tea "charm.land/bubbletea/v2"
)

// actionCmd runs fn off the update loop. The resulting state arrives
// separately through the bridge; this message only reports the error.
func actionCmd(ctx context.Context, a action, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return ActionDoneMsg{Action: a, Err: fn(ctx)}
	}
}

// activateCmd loads the snapshot and negotiates a transport once the program
// owns the screen, so a slow backend shows as connecting instead of a blank
// terminal.
func activateCmd(ctx context.Context, c Controller) tea.Cmd {
	return func() tea.Msg {
		return ActivatedMsg{Err: c.Activate(ctx)}
	}
}

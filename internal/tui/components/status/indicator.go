package status

import (
	"fmt"

	"charm.land/lipgloss/v2"

	"github.com/garrettladley/bellhop/internal/notify"
	"github.com/garrettladley/bellhop/internal/transport"
	"github.com/garrettladley/bellhop/internal/tui/theme"
)

const statusDot = "●"

// Indicator renders the live-update connection and the active transport.
type Indicator struct {
	Checked   bool
	Status    notify.Status
	Transport transport.Kind
}

func (i Indicator) Render() string {
	if !i.Checked {
		return lipgloss.NewStyle().
			Foreground(theme.ColorBgLight).
			Render(statusDot + " connecting...")
	}

	if i.Status != notify.StatusConnected {
		return lipgloss.NewStyle().
			Foreground(theme.ColorDisconnected).
			Render(statusDot + " offline")
	}

	color := theme.ColorConnected
	if i.Transport == transport.KindFallback {
		color = theme.ColorFallback
	}
	return lipgloss.NewStyle().
		Foreground(color).
		Render(fmt.Sprintf("%s live (%s)", statusDot, i.Transport))
}

// Badge renders the unread count, or nothing when every notification is read.
func Badge(unread int) string {
	if unread == 0 {
		return ""
	}
	label := fmt.Sprintf(" %d unread ", unread)
	if unread > 99 {
		label = " 99+ unread "
	}
	return lipgloss.NewStyle().
		Foreground(theme.ColorBlack).
		Background(theme.ColorAccent).
		Bold(true).
		Render(label)
}

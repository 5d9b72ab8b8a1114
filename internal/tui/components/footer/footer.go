package footer

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/garrettladley/bellhop/internal/tui/theme"
)

var (
	helpStyle  = lipgloss.NewStyle().Foreground(theme.ColorDim)
	errorStyle = lipgloss.NewStyle().Foreground(theme.ColorDisconnected)
)

// Footer is a single line pinned to the bottom of the screen: build info and
// the last action error on the left, key help on the right.
type Footer struct {
	help    string
	err     error
	width   int
	padding int
}

func New(help string, width int) Footer {
	return Footer{
		help:    help,
		width:   width,
		padding: 2,
	}
}

func (f Footer) WithError(err error) Footer {
	f.err = err
	return f
}

func (f Footer) Render() string {
	left := f.leftContent()
	if f.err != nil {
		if left != "" {
			left += "  "
		}
		left += errorStyle.Render(f.err.Error())
	}
	right := helpStyle.Render(f.help)

	spacerWidth := max(f.width-lipgloss.Width(left)-lipgloss.Width(right)-(f.padding*2), 1)

	return lipgloss.NewStyle().
		PaddingLeft(f.padding).
		PaddingRight(f.padding).
		Render(left + strings.Repeat(" ", spacerWidth) + right)
}

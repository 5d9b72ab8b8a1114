package tui

import (
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/tui/components/footer"
	"github.com/garrettladley/bellhop/internal/tui/components/status"
	"github.com/garrettladley/bellhop/internal/tui/theme"
)

const (
	helpText     = "j/k move · enter read · a read all · c clear · r refresh · q quit"
	headerHeight = 2
	footerHeight = 1
	unreadMarker = "●"
)

var unreadStyle = lipgloss.NewStyle().Foreground(theme.ColorUnread)

func (m *Model) InboxView() string {
	width := m.viewportWidth
	listHeight := max(m.viewportHeight-headerHeight-footerHeight, 1)

	body := lipgloss.JoinVertical(
		lipgloss.Left,
		m.headerView(width),
		"",
		m.listView(width, listHeight),
	)
	body = lipgloss.Place(width, m.viewportHeight-footerHeight, lipgloss.Left, lipgloss.Top, body)

	f := footer.New(helpText, width).WithError(m.state.inbox.Err)
	return body + "\n" + f.Render()
}

func (m *Model) headerView(width int) string {
	inbox := m.state.inbox

	left := m.theme.TextAccent().Bold(true).Render("bellhop")
	if badge := status.Badge(inbox.Unread); badge != "" {
		left += "  " + badge
	}
	if inbox.Pending != "" {
		left += "  " + m.theme.Muted().Render(string(inbox.Pending)+"...")
	}
	right := inbox.Indicator.Render()

	spacer := max(width-lipgloss.Width(left)-lipgloss.Width(right)-4, 1)
	return lipgloss.NewStyle().
		PaddingLeft(2).
		PaddingRight(2).
		Render(left + strings.Repeat(" ", spacer) + right)
}

func (m *Model) listView(width int, height int) string {
	inbox := m.state.inbox
	if len(inbox.Notifications) == 0 {
		return lipgloss.NewStyle().PaddingLeft(2).Render(m.theme.Muted().Render("No notifications"))
	}

	start, end := window(inbox.Cursor, len(inbox.Notifications), height)
	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, m.rowView(inbox.Notifications[i], i == inbox.Cursor, width))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) rowView(n storage.Notification, selected bool, width int) string {
	marker := " "
	if !n.Read {
		marker = unreadStyle.Render(unreadMarker)
	}

	title := n.Title
	if title == "" {
		title = string(n.Type)
	}
	line := title
	if n.Message != "" {
		line += " · " + n.Message
	}
	if ts := formatTimestamp(n.Timestamp); ts != "" {
		line = ts + "  " + line
	}

	rowWidth := max(width-6, 1)
	style := m.theme.Base().Width(rowWidth).MaxWidth(rowWidth).MaxHeight(1)
	switch {
	case selected:
		style = m.theme.Selected().Width(rowWidth).MaxWidth(rowWidth).MaxHeight(1)
	case n.Read:
		style = style.Foreground(theme.ColorDim)
	default:
		style = style.Bold(true)
	}

	return "  " + marker + " " + style.Render(line)
}

// window returns the [start, end) slice of n rows to show so that cursor stays
// visible within height rows.
func window(cursor int, n int, height int) (int, int) {
	if n <= height {
		return 0, n
	}
	start := max(cursor-height+1, 0)
	return start, min(start+height, n)
}

func formatTimestamp(ts string) string {
	if ts == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("Jan 02 15:04")
}

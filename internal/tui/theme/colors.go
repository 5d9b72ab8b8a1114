package theme

import "charm.land/lipgloss/v2"

var (
	ColorBlack = lipgloss.Color("#000000")
	ColorWhite = lipgloss.Color("#FFFFFF")
	ColorDim   = lipgloss.Color("#666666")
)

var (
	ColorAccent       = lipgloss.Color("#00F19F") // selection, badge
	ColorUnread       = lipgloss.Color("#67AEE6") // unread marker
	ColorConnected    = lipgloss.Color("#16EC06")
	ColorFallback     = lipgloss.Color("#FFDE00") // connected over the fallback transport
	ColorDisconnected = lipgloss.Color("#FF0026")
)

var (
	ColorBgDark  = lipgloss.Color("#101518")
	ColorBgLight = lipgloss.Color("#283339")
)

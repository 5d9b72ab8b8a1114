//go:build !release

package footer

import (
	"charm.land/lipgloss/v2"

	"github.com/garrettladley/bellhop/internal/tui/theme"
	"github.com/garrettladley/bellhop/internal/version"
)

var (
	buildStyle      = lipgloss.NewStyle().Foreground(theme.ColorDim)
	localBuildStyle = lipgloss.NewStyle().Foreground(theme.ColorFallback)
)

func (f Footer) leftContent() string {
	v := version.Get()
	if version.IsDevelopment(v) {
		return localBuildStyle.Render(buildLabel(v))
	}
	return buildStyle.Render(buildLabel(v))
}

// buildLabel names the running binary; local and dirty builds are flagged so
// they read differently from a tagged one.
func buildLabel(v string) string {
	if version.IsDevelopment(v) {
		return "bellhop " + v + " (local build)"
	}
	return "bellhop " + v
}

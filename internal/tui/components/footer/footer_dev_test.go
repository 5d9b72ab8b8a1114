//go:build !release

package footer

import (
	"errors"
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestBuildLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version string
		want    string
	}{
		{version: "v1.4.0", want: "bellhop v1.4.0"},
		{version: "devel", want: "bellhop devel (local build)"},
		{version: "v1.4.0-dirty", want: "bellhop v1.4.0-dirty (local build)"},
		{version: "v0.0.0-0.20260101-abcdef", want: "bellhop v0.0.0-0.20260101-abcdef (local build)"},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			t.Parallel()

			if got := buildLabel(tt.version); got != tt.want {
				t.Errorf("buildLabel(%q) = %q, want %q", tt.version, got, tt.want)
			}
		})
	}
}

func TestRenderFitsWidth(t *testing.T) {
	t.Parallel()

	const width = 120
	got := New("q quit", width).WithError(errors.New("refresh: 502")).Render()

	for _, want := range []string{"bellhop", "refresh: 502", "q quit"} {
		if !strings.Contains(got, want) {
			t.Errorf("Render() = %q, missing %q", got, want)
		}
	}
	if w := lipgloss.Width(got); w != width {
		t.Errorf("rendered width = %d, want %d", w, width)
	}
}

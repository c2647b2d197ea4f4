package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the panel's visual styling. All colors are adaptive so the
// panel stays readable on light terminals.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Accent    lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Dragged  lipgloss.Style
	Header   lipgloss.Style
	Footer   lipgloss.Style

	LockedText lipgloss.Style
	HiddenText lipgloss.Style
	MutedText  lipgloss.Style
	StatusText lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"}, // Dim
		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Accent:    lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}, // Green
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Cursor = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		Bold(true)

	t.Selected = r.NewStyle().Foreground(t.Primary).Bold(true)

	t.Dragged = r.NewStyle().Foreground(t.Accent).Italic(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.Footer = r.NewStyle().Foreground(t.Secondary)

	t.LockedText = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"})
	t.HiddenText = r.NewStyle().Foreground(t.Muted).Faint(true)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.StatusText = r.NewStyle().Foreground(t.Accent)

	return t
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}

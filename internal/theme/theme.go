package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the application title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps full-width content areas (help, settings).
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ResultPanelStyle frames a successful outcome.
var ResultPanelStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorGreen)

// ErrorPanelStyle frames a failed outcome.
var ErrorPanelStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.ThickBorder()).
	BorderForeground(ColorRed)

// TitleStyle is used for panel titles.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// LabelStyle is used for field labels inside panels.
var LabelStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGray)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ChipStyle returns the style for a list chip of the given kind.
func ChipStyle(kind string) lipgloss.Style {
	base := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(ColorWhite)

	switch kind {
	case "agent":
		return base.Background(ColorBlue)
	case "source":
		return base.Background(ColorMagenta)
	default:
		return base.Background(ColorSubtle)
	}
}

// ValidationStyle returns the indicator style for a validation result.
func ValidationStyle(passed bool) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	if passed {
		return base.Foreground(ColorGreen)
	}
	return base.Foreground(ColorYellow)
}

// HealthStyle returns a color-coded style for the backend health label.
func HealthStyle(state string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch state {
	case "ok":
		return base.Foreground(ColorGreen)
	case "unreachable":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

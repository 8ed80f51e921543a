package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/bk-tui/internal/logs"
	"github.com/altinukshini/bk-tui/internal/status"
)

var (
	ColorPrimary   = lipgloss.Color("#14CC80")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorFailure   = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorInfo      = lipgloss.Color("#3B82F6")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorBorder    = lipgloss.Color("#374151")
	ColorHighlight = lipgloss.Color("#1F2937")

	StylePane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StylePaneFocused = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#111827")).
			Background(ColorPrimary).
			Padding(0, 1)

	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleFailure = lipgloss.NewStyle().Foreground(ColorFailure)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleMuted   = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleCommand = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))

	StyleMatch = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FCD34D")).
			Background(lipgloss.Color("#78350F"))
)

// StatusStyle colors text with the status's main color.
func StatusStyle(s status.Status) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(status.ColorsFor(s).Main))
}

// StatusChip renders the status as a label on its subtle background.
func StatusChip(s status.Status) string {
	c := status.ColorsFor(s)
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(c.Main)).
		Background(lipgloss.Color(c.Subtle)).
		Padding(0, 1).
		Render(s.Label())
}

func StatusIcon(s status.Status) string {
	return StatusStyle(s).Render(s.Icon())
}

// LogStyle returns the style for a processed log line of type t.
func LogStyle(t logs.Type) lipgloss.Style {
	switch t {
	case logs.TypeCommand:
		return StyleCommand
	case logs.TypeError:
		return StyleFailure
	case logs.TypeWarning:
		return StyleWarning
	case logs.TypeSuccess:
		return StyleSuccess
	case logs.TypeInfo:
		return StyleInfo
	default:
		return lipgloss.NewStyle()
	}
}

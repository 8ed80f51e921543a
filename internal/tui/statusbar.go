package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/altinukshini/bk-tui/internal/ui"
)

// RenderStatusBar draws the bottom line. watching marks that a build or job
// on screen is still running and refreshes at the fast interval. The status
// text is cut before the hints are.
func RenderStatusBar(status, hints string, watching bool, width int) string {
	muted := lipgloss.NewStyle().Foreground(ui.ColorMuted)

	badge := ""
	if watching {
		badge = lipgloss.NewStyle().Bold(true).Foreground(ui.ColorInfo).Render(" ● ")
	}
	help := muted.Render(hints + " ")

	room := width - lipgloss.Width(badge) - lipgloss.Width(help) - 2
	if room < 0 {
		help = ""
		room = width - lipgloss.Width(badge) - 2
	}
	left := badge + muted.Render("  "+runewidth.Truncate(status, max(room, 0), "…"))

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(help), 0)
	padding := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.NewStyle().
		Background(lipgloss.Color("#111827")).
		Width(width).
		Render(left + padding + help)
}

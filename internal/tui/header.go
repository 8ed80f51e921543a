package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/bk-tui/internal/api"
	"github.com/altinukshini/bk-tui/internal/ui"
)

func RenderHeader(org, pipeline string, utc bool, rl api.RateLimit, width int) string {
	scope := org
	if pipeline != "" {
		scope += "/" + pipeline
	}
	left := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(fmt.Sprintf(" bk-tui | %s", scope))

	zone := "local"
	if utc {
		zone = "UTC"
	}
	right := ui.StyleMuted.Render(zone + "  ")

	if rl.Limit > 0 {
		color := ui.ColorSuccess
		if rl.Remaining < rl.Limit/10 {
			color = ui.ColorFailure
		} else if rl.Remaining < rl.Limit/4 {
			color = ui.ColorWarning
		}
		right += lipgloss.NewStyle().Foreground(color).
			Render(fmt.Sprintf("API: %d/%d ", rl.Remaining, rl.Limit))
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	padding := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.NewStyle().
		Background(ui.ColorHighlight).
		Width(width).
		Render(left + padding + right)
}

package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/altinukshini/bk-tui/internal/status"
	"github.com/altinukshini/bk-tui/internal/timefmt"
	"github.com/altinukshini/bk-tui/internal/ui"
)

// windowLabels are the tab captions of the date presets.
var windowLabels = map[string]string{
	timefmt.PresetToday:      "today",
	timefmt.PresetYesterday:  "yesterday",
	timefmt.PresetLast7Days:  "7d",
	timefmt.PresetLast30Days: "30d",
}

// WindowChangedMsg asks the parent to fetch builds for a new date range.
type WindowChangedMsg struct {
	Preset string
	Range  timefmt.DateRange
}

type Model struct {
	metrics   *Metrics
	pipeline  string
	windows   []string
	windowIdx int
	clock     timefmt.Clock
	viewport  viewport.Model
	width     int
	height    int
	loading   bool
	ready     bool
	err       error
}

func New(clock timefmt.Clock) Model {
	return Model{
		windows:   timefmt.Presets(),
		windowIdx: 2, // last7Days
		clock:     clock,
		loading:   true,
	}
}

// SetPipeline clears metrics gathered for another pipeline.
func (m *Model) SetPipeline(slug string) {
	if slug == m.pipeline {
		return
	}
	m.pipeline = slug
	m.metrics = nil
	m.err = nil
	m.loading = true
}

func (m Model) Pipeline() string {
	return m.pipeline
}

func (m *Model) SetMetrics(metrics *Metrics) {
	m.metrics = metrics
	m.loading = false
	m.err = nil
	if m.ready {
		m.viewport.SetContent(m.render())
	}
}

func (m Model) Init() tea.Cmd { return nil }

// Window returns the selected date preset.
func (m Model) Window() string {
	if m.windowIdx >= 0 && m.windowIdx < len(m.windows) {
		return m.windows[m.windowIdx]
	}
	return timefmt.PresetLast7Days
}

// Range resolves the selected preset against the clock.
func (m Model) Range() timefmt.DateRange {
	return timefmt.RangeFromPreset(m.Window(), m.clock.Now())
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.DashboardDataMsg:
		if msg.Err != nil {
			m.loading = false
			m.err = msg.Err
			return m, nil
		}
		met := ComputeMetrics(msg.Builds)
		m.SetMetrics(&met)
		return m, nil

	case tea.KeyMsg:
		newIdx := -1
		switch msg.String() {
		case "[":
			if m.windowIdx > 0 {
				newIdx = m.windowIdx - 1
			}
		case "]":
			if m.windowIdx < len(m.windows)-1 {
				newIdx = m.windowIdx + 1
			}
		}
		if newIdx >= 0 && newIdx != m.windowIdx {
			m.windowIdx = newIdx
			m.loading = true
			preset, r := m.Window(), m.Range()
			return m, func() tea.Msg {
				return WindowChangedMsg{Preset: preset, Range: r}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-2)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 2
		}
		if m.metrics != nil {
			m.viewport.SetContent(m.render())
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) render() string {
	if m.metrics == nil {
		return "  No data"
	}
	met := m.metrics
	bold := lipgloss.NewStyle().Bold(true)
	muted := lipgloss.NewStyle().Foreground(ui.ColorMuted)

	if met.TotalBuilds == 0 {
		return muted.Render(fmt.Sprintf("  No builds created %s", windowLabels[m.Window()]))
	}

	var b strings.Builder

	b.WriteString(bold.Render(fmt.Sprintf("  Overview (%s)", windowLabels[m.Window()])) + "\n\n")
	b.WriteString(fmt.Sprintf("  Total Builds: %s\n", bold.Render(fmt.Sprintf("%d", met.TotalBuilds))))
	b.WriteString(fmt.Sprintf("  Passed:       %s (%.1f%%)\n",
		ui.StyleSuccess.Render(fmt.Sprintf("%d", met.PassedCount)), met.PassRate))
	b.WriteString(fmt.Sprintf("  Failed:       %s (%.1f%%)\n",
		ui.StyleFailure.Render(fmt.Sprintf("%d", met.FailedCount)), met.FailureRate))
	b.WriteString(fmt.Sprintf("  Canceled:     %s\n",
		ui.StyleWarning.Render(fmt.Sprintf("%d", met.CancelCount))))
	if met.RunningCount > 0 {
		b.WriteString(fmt.Sprintf("  Running:      %s\n",
			ui.StyleInfo.Render(fmt.Sprintf("%d", met.RunningCount))))
	}
	b.WriteString(fmt.Sprintf("  Retry Rate:   %.1f%%\n\n", met.RetryRate))

	b.WriteString(bold.Render("  Performance") + "\n\n")
	b.WriteString(fmt.Sprintf("  Duration:    mean %s / median %s / p95 %s / p99 %s\n",
		formatSeconds(met.MeanDuration),
		formatSeconds(met.MedianDuration),
		formatSeconds(met.P95Duration),
		formatSeconds(met.P99Duration)))
	b.WriteString(fmt.Sprintf("  Wait Time:   mean %s / median %s / p95 %s\n\n",
		formatSeconds(met.MeanQueueTime),
		formatSeconds(met.MedianQueueTime),
		formatSeconds(met.P95QueueTime)))

	if len(met.SlowestSteps) > 0 {
		b.WriteString(bold.Render("  Slowest Steps") + "\n\n")
		for i, s := range met.SlowestSteps {
			b.WriteString(fmt.Sprintf("  %d. %-40s  median %s  p95 %s  %s\n",
				i+1,
				runewidth.Truncate(s.Name, 40, "…"),
				ui.StyleWarning.Render(fmt.Sprintf("%7s", formatSeconds(s.MedianDuration))),
				ui.StyleFailure.Render(fmt.Sprintf("%7s", formatSeconds(s.P95Duration))),
				muted.Render(fmt.Sprintf("(%d runs)", s.RunCount))))
		}
		b.WriteString("\n")
	}

	writeCounts := func(title, unit string, counts map[string]int, limit int) {
		if len(counts) == 0 {
			return
		}
		b.WriteString(bold.Render("  "+title) + "\n\n")
		entries := sortMapByValue(counts)
		if len(entries) > limit {
			entries = entries[:limit]
		}
		for _, e := range entries {
			b.WriteString(fmt.Sprintf("  %-30s %s\n",
				runewidth.Truncate(e.Key, 30, "…"),
				muted.Render(fmt.Sprintf("%d %s", e.Value, unit))))
		}
		b.WriteString("\n")
	}
	writeCounts("Builds by Source", "builds", met.BuildsBySource, 10)
	writeCounts("Top Creators", "builds", met.BuildsByCreator, 10)
	writeCounts("Top Branches", "builds", met.BuildsByBranch, 10)

	if len(met.TopFailingJobs) > 0 {
		b.WriteString(bold.Render("  Top Failing Jobs") + "\n\n")

		barMaxLen := 20
		maxRate := 0.0
		for _, js := range met.TopFailingJobs {
			maxRate = max(maxRate, js.FailureRate)
		}
		for i, js := range met.TopFailingJobs {
			barLen := 1
			if maxRate > 0 {
				barLen = max(int(js.FailureRate/maxRate*float64(barMaxLen)), 1)
			}
			bar := strings.Repeat("█", barLen) + strings.Repeat("░", barMaxLen-barLen)
			b.WriteString(fmt.Sprintf("  %d. %s %s  %s  %s %s\n",
				i+1,
				ui.StatusIcon(status.Failed),
				ui.StyleFailure.Render(fmt.Sprintf("%5.1f%%", js.FailureRate)),
				ui.StyleFailure.Render(bar),
				muted.Render(fmt.Sprintf("%d/%d", js.FailureCount, js.TotalRuns)),
				runewidth.Truncate(js.Name, 40, "…")))
		}
		b.WriteString("\n")
	}

	if met.TotalJobs > 0 {
		b.WriteString(bold.Render("  Job Performance") + "\n\n")
		b.WriteString(fmt.Sprintf("  Total Jobs: %s\n", bold.Render(fmt.Sprintf("%d", met.TotalJobs))))
		b.WriteString(fmt.Sprintf("  Passed:     %s\n",
			ui.StyleSuccess.Render(fmt.Sprintf("%d", met.JobPassedCount))))
		b.WriteString(fmt.Sprintf("  Failed:     %s\n",
			ui.StyleFailure.Render(fmt.Sprintf("%d", met.JobFailedCount))))
		b.WriteString(fmt.Sprintf("  Duration:   mean %s / median %s / p95 %s\n",
			formatSeconds(met.MeanJobDuration),
			formatSeconds(met.MedianJobDuration),
			formatSeconds(met.P95JobDuration)))
	}

	return b.String()
}

func formatSeconds(s float64) string {
	return timefmt.FormatDuration(int64(s))
}

func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v", m.err)
	}
	if m.loading {
		return "\n  Loading metrics..."
	}

	muted := lipgloss.NewStyle().Foreground(ui.ColorMuted)
	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9FAFB"))

	var parts []string
	for i, w := range m.windows {
		if i == m.windowIdx {
			parts = append(parts, active.Render(windowLabels[w]))
		} else {
			parts = append(parts, muted.Render(windowLabels[w]))
		}
	}
	tabs := "  " + strings.Join(parts, "  ") + "    " + muted.Render("press [ or ] to switch")

	if m.ready {
		return tabs + "\n" + m.viewport.View()
	}
	return tabs + "\n  Initializing..."
}

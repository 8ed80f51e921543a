package infoview

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/status"
	"github.com/altinukshini/bk-tui/internal/timefmt"
	"github.com/altinukshini/bk-tui/internal/ui"
)

type Model struct {
	build      *model.Build
	job        *model.Job
	showingJob bool
	utc        bool
	clock      timefmt.Clock
	viewport   viewport.Model
	width      int
	height     int
	ready      bool
}

func New(clock timefmt.Clock) Model {
	return Model{clock: clock}
}

func (m *Model) SetBuild(build *model.Build) {
	m.build = build
	m.showingJob = false
	m.refresh()
}

func (m *Model) SetJob(job *model.Job) {
	m.job = job
	m.showingJob = true
	m.refresh()
}

// SetUTC switches timestamps between local time and UTC.
func (m *Model) SetUTC(utc bool) {
	m.utc = utc
	m.refresh()
}

func (m Model) Job() *model.Job {
	return m.job
}

func (m Model) IsShowingJob() bool {
	return m.showingJob
}

func (m Model) Build() *model.Build {
	return m.build
}

func (m *Model) refresh() {
	if m.ready {
		m.viewport.SetContent(m.render())
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.BuildLoadedMsg:
		if msg.Err == nil && msg.Build != nil && m.build != nil && m.build.Number == msg.Number {
			m.build = msg.Build
			m.refresh()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerH := 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerH)
			m.ready = true
			if m.build != nil || m.job != nil {
				m.viewport.SetContent(m.render())
			}
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerH
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.showingJob {
		if m.job == nil {
			return "\n  Select a job and press 'i' to view info"
		}
	} else if m.build == nil {
		return "\n  Select a build and press 'i' to view info"
	}

	pct := m.viewport.ScrollPercent() * 100
	var header string
	if m.showingJob {
		header = fmt.Sprintf(" Job Info  %3.0f%%", pct)
	} else {
		header = fmt.Sprintf(" Build #%d Info  %3.0f%%", m.build.Number, pct)
	}
	hints := ui.StyleMuted.Render(
		"  j/k:scroll  g/G:top/bot  PgUp/Dn:page  esc:back")
	headerLine := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(header) + hints

	return headerLine + "\n" + m.viewport.View()
}

func (m Model) render() string {
	if m.showingJob {
		return m.renderJob()
	}
	return m.renderBuild()
}

func (m Model) formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	if m.utc {
		return t.UTC().Format("2006-01-02 15:04:05 UTC")
	}
	return t.In(m.clock.Now().Location()).Format("2006-01-02 15:04:05")
}

func (m Model) renderBuild() string {
	if m.build == nil {
		return "  No build selected"
	}

	b := m.build
	now := m.clock.Now()
	bold := lipgloss.NewStyle().Bold(true)
	label := lipgloss.NewStyle().Foreground(ui.ColorMuted).Width(16)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))

	row := func(l, v string) string {
		return "  " + label.Render(l) + value.Render(v) + "\n"
	}

	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("  " + bold.Render(b.Title()) + "\n")
	sb.WriteString("\n")

	sb.WriteString(row("Build", fmt.Sprintf("#%d", b.Number)))
	sb.WriteString("  " + label.Render("State") + ui.StatusChip(b.Status()) + "\n")
	if b.CreatedAt != nil {
		sb.WriteString(row("", timefmt.FormatDate(*b.CreatedAt, m.utc, b.Source, now)))
	}
	if by := b.CreatedBy(); by != "" {
		sb.WriteString(row("Creator", by))
	}
	sb.WriteString(row("Branch", b.Branch))
	if b.Tag != "" {
		sb.WriteString(row("Tag", b.Tag))
	}
	sb.WriteString(row("Commit", b.ShortSHA()))
	sb.WriteString("\n")

	sb.WriteString("  " + bold.Render("Timestamps") + "\n\n")
	sb.WriteString(row("Created", m.formatTime(b.CreatedAt)))
	sb.WriteString(row("Started", m.formatTime(b.StartedAt)))
	sb.WriteString(row("Finished", m.formatTime(b.FinishedAt)))
	sb.WriteString(row("Duration", b.Duration(now)))
	sb.WriteString("\n")

	if b.WebURL != "" {
		sb.WriteString(row("URL", b.WebURL))
		sb.WriteString("\n")
	}

	if len(b.MetaData) > 0 {
		sb.WriteString("  " + bold.Render("Meta-data") + "\n\n")
		keys := make([]string, 0, len(b.MetaData))
		for k := range b.MetaData {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(row(k, b.MetaData[k]))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("  " + bold.Render("Jobs") + "\n\n")
	if len(b.Jobs) == 0 {
		sb.WriteString("  " + ui.StyleMuted.Render("Loading jobs...") + "\n")
		return sb.String()
	}

	var passed, failed, running, other, total int
	for _, j := range b.Jobs {
		if j.Type == model.JobTypeWaiter || j.Retried {
			continue
		}
		total++
		s := j.Status()
		switch {
		case status.IsSuccess(s):
			passed++
		case status.IsFailure(s):
			failed++
		case s == status.Running:
			running++
		default:
			other++
		}
	}

	parts := []string{fmt.Sprintf("%d total", total)}
	if passed > 0 {
		parts = append(parts, ui.StyleSuccess.Render(fmt.Sprintf("%d passed", passed)))
	}
	if failed > 0 {
		parts = append(parts, ui.StyleFailure.Render(fmt.Sprintf("%d failed", failed)))
	}
	if running > 0 {
		parts = append(parts, ui.StyleInfo.Render(fmt.Sprintf("%d running", running)))
	}
	if other > 0 {
		parts = append(parts, ui.StyleMuted.Render(fmt.Sprintf("%d other", other)))
	}
	sb.WriteString("  " + strings.Join(parts, ", ") + "\n\n")

	for _, j := range b.Jobs {
		if j.Type == model.JobTypeWaiter || j.Retried {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s %-40s %8s\n",
			ui.StatusIcon(j.Status()), j.DisplayName(), j.Duration(now)))
	}

	return sb.String()
}

func (m Model) renderJob() string {
	if m.job == nil {
		return "  No job selected"
	}

	j := m.job
	now := m.clock.Now()
	bold := lipgloss.NewStyle().Bold(true)
	label := lipgloss.NewStyle().Foreground(ui.ColorMuted).Width(16)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))

	row := func(l, v string) string {
		return "  " + label.Render(l) + value.Render(v) + "\n"
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("  " + bold.Render(j.DisplayName()) + "\n")
	b.WriteString("\n")

	b.WriteString("  " + label.Render("State") + ui.StatusChip(j.Status()) + "\n")
	b.WriteString(row("Type", j.Type))
	if j.StepKey != "" {
		b.WriteString(row("Step key", j.StepKey))
	}
	if j.ExitStatus != nil {
		b.WriteString(row("Exit status", fmt.Sprintf("%d", *j.ExitStatus)))
	}
	if j.SoftFailed {
		b.WriteString(row("Soft failed", "yes"))
	}
	if j.RetriesCount > 0 {
		b.WriteString(row("Retries", fmt.Sprintf("%d", j.RetriesCount)))
	}
	if j.Agent != nil {
		b.WriteString(row("Agent", j.Agent.Name))
		if j.Agent.Hostname != "" {
			b.WriteString(row("Host", j.Agent.Hostname))
		}
	}
	b.WriteString("\n")

	b.WriteString("  " + bold.Render("Timestamps") + "\n\n")
	b.WriteString(row("Scheduled", m.formatTime(j.ScheduledAt)))
	b.WriteString(row("Started", m.formatTime(j.StartedAt)))
	b.WriteString(row("Finished", m.formatTime(j.FinishedAt)))
	if j.Running() {
		b.WriteString(row("Elapsed", j.Duration(now)))
	} else {
		b.WriteString(row("Duration", j.Duration(now)))
	}
	b.WriteString("\n")

	if j.WebURL != "" {
		b.WriteString(row("URL", j.WebURL))
		b.WriteString("\n")
	}

	if j.Command != "" {
		b.WriteString("  " + bold.Render("Command") + "\n\n")
		for _, line := range strings.Split(j.Command, "\n") {
			b.WriteString("  " + ui.StyleCommand.Render(line) + "\n")
		}
	}

	return b.String()
}

package details

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/status"
	"github.com/altinukshini/bk-tui/internal/timefmt"
	"github.com/altinukshini/bk-tui/internal/ui"
)

// JobGroup is either a single job, the parallel copies of one step, or a
// separator for a wait step.
type JobGroup struct {
	Label     string
	Jobs      []model.Job
	Parallel  bool
	Separator bool
}

// groupJobs keeps pipeline order. Parallel jobs sharing a step collapse under
// one header; superseded retries are dropped.
func groupJobs(jobs []model.Job) []JobGroup {
	var groups []JobGroup
	index := make(map[string]int)

	for _, j := range jobs {
		if j.Retried {
			continue
		}
		if j.Type == model.JobTypeWaiter {
			groups = append(groups, JobGroup{Label: "wait", Separator: true})
			continue
		}
		if j.ParallelGroupTotal != nil && *j.ParallelGroupTotal > 1 {
			key := j.StepKey
			if key == "" {
				key = j.Label
			}
			if i, ok := index[key]; ok {
				groups[i].Jobs = append(groups[i].Jobs, j)
				continue
			}
			index[key] = len(groups)
			groups = append(groups, JobGroup{Label: j.DisplayName(), Jobs: []model.Job{j}, Parallel: true})
			continue
		}
		groups = append(groups, JobGroup{Label: j.DisplayName(), Jobs: []model.Job{j}})
	}
	return groups
}

type Model struct {
	build    *model.Build
	groups   []JobGroup
	viewport viewport.Model
	clock    timefmt.Clock
	cursor   int
	width    int
	height   int
	loading  bool
	ready    bool
	err      error
}

func New(clock timefmt.Clock) Model {
	return Model{clock: clock}
}

// SetBuild shows build while its jobs are fetched.
func (m *Model) SetBuild(build *model.Build) {
	m.build = build
	m.groups = nil
	m.err = nil
	m.loading = true
	m.cursor = 0
}

func (m Model) Build() *model.Build {
	return m.build
}

// Jobs returns the selectable jobs in display order.
func (m Model) Jobs() []model.Job {
	return m.flatJobs()
}

func (m Model) SelectedJob() *model.Job {
	flat := m.flatJobs()
	if m.cursor >= 0 && m.cursor < len(flat) {
		return &flat[m.cursor]
	}
	return nil
}

func (m Model) flatJobs() []model.Job {
	var jobs []model.Job
	for _, g := range m.groups {
		jobs = append(jobs, g.Jobs...)
	}
	return jobs
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.BuildLoadedMsg:
		if m.build == nil || msg.Number != m.build.Number {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.build = msg.Build
		prev := m.cursor
		m.groups = groupJobs(msg.Build.Jobs)
		// Refreshes of the same build keep the cursor.
		if n := len(m.flatJobs()); prev >= n {
			m.cursor = max(n-1, 0)
		}
		m.refresh()

	case tea.KeyMsg:
		flat := m.flatJobs()
		switch {
		case key.Matches(msg, ui.Keys.Down):
			if m.cursor < len(flat)-1 {
				m.cursor++
				m.refresh()
			}
		case key.Matches(msg, ui.Keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.refresh()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-1)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 1
		}
		m.viewport.SetContent(m.renderJobs())
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) refresh() {
	if m.ready {
		m.viewport.SetContent(m.renderJobs())
	}
}

// aggregateStatus summarizes parallel jobs: running wins, then failure,
// then cancellation, then anything still waiting; otherwise passed.
func aggregateStatus(jobs []model.Job) status.Status {
	var hasRunning, hasFailed, hasCanceled, hasPending bool
	for _, j := range jobs {
		s := j.Status()
		switch {
		case s == status.Running:
			hasRunning = true
		case s == status.Canceled || s == status.Canceling:
			hasCanceled = true
		case status.IsFailure(s):
			hasFailed = true
		case !status.IsSuccess(s):
			hasPending = true
		}
	}
	switch {
	case hasRunning:
		return status.Running
	case hasFailed:
		return status.Failed
	case hasCanceled:
		return status.Canceled
	case hasPending:
		return status.Scheduled
	}
	return status.Passed
}

func (m Model) jobLine(j model.Job, selected bool, indent string) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}
	s := j.Status()
	icon := ui.StatusIcon(s)

	name := j.DisplayName()
	if j.ParallelGroupIndex != nil && j.ParallelGroupTotal != nil {
		name = fmt.Sprintf("%s %d/%d", name, *j.ParallelGroupIndex+1, *j.ParallelGroupTotal)
	}
	if avail := m.width - 24; avail > 8 {
		name = runewidth.Truncate(name, avail, "…")
	}

	var extra []string
	switch j.Type {
	case model.JobTypeManual:
		extra = append(extra, ui.StyleMuted.Render("block"))
	case model.JobTypeTrigger:
		extra = append(extra, ui.StyleMuted.Render("trigger"))
	default:
		extra = append(extra, j.Duration(m.clock.Now()))
	}
	if j.SoftFailed {
		extra = append(extra, ui.StyleWarning.Render("soft fail"))
	}
	if j.HasLog() && !status.IsClickable(s) && !status.IsInProgress(s) {
		extra = append(extra, ui.StyleMuted.Render("no log"))
	}

	line := fmt.Sprintf("%s%s%s %s  %s", cursor, indent, icon, name, strings.Join(extra, "  "))
	if selected {
		line = lipgloss.NewStyle().Background(ui.ColorHighlight).Render(line)
	}
	return line
}

func (m Model) renderJobs() string {
	if len(m.groups) == 0 {
		return "  No jobs"
	}

	bold := lipgloss.NewStyle().Bold(true)

	var b strings.Builder
	idx := 0
	for _, g := range m.groups {
		switch {
		case g.Separator:
			b.WriteString(ui.StyleMuted.Render("  ── wait ──") + "\n")
		case g.Parallel:
			b.WriteString(fmt.Sprintf("\n  %s %s %s\n",
				ui.StatusIcon(aggregateStatus(g.Jobs)),
				bold.Render(g.Label),
				ui.StyleMuted.Render(fmt.Sprintf("(%d parallel)", len(g.Jobs)))))
			for _, j := range g.Jobs {
				b.WriteString(m.jobLine(j, idx == m.cursor, "  ") + "\n")
				idx++
			}
		default:
			for _, j := range g.Jobs {
				b.WriteString(m.jobLine(j, idx == m.cursor, "") + "\n")
				idx++
			}
		}
	}
	return b.String()
}

func (m Model) View() string {
	if m.build == nil {
		return "\n  Select a build"
	}
	if m.loading {
		return "\n  Loading jobs..."
	}
	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v", m.err)
	}

	header := fmt.Sprintf(" #%d %s | %s | %s",
		m.build.Number,
		m.build.Title(),
		m.build.Branch,
		m.build.Status().Label(),
	)
	if m.width > 0 {
		header = runewidth.Truncate(header, m.width, "…")
	}

	return lipgloss.NewStyle().Bold(true).Render(header) + "\n" + m.viewport.View()
}

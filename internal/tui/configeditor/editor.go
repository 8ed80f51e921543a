package configeditor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/pipelineconf"
	"github.com/altinukshini/bk-tui/internal/ui"
)

// ResultMsg is emitted when the editor closes. Configuration is only set
// when Saved is true and has passed validation.
type ResultMsg struct {
	Saved         bool
	Slug          string
	Configuration string
}

// Model edits a pipeline's YAML steps.
type Model struct {
	active   bool
	pipeline model.Pipeline
	original string
	area     textarea.Model
	summary  string
	err      error
	width    int
	height   int
}

func New(p model.Pipeline) Model {
	ta := textarea.New()
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetValue(p.Configuration)
	ta.Focus()

	m := Model{active: true, pipeline: p, original: p.Configuration, area: ta}
	m.check()
	return m
}

func (m Model) IsActive() bool { return m.active }

// Dirty reports whether the text differs from what was loaded.
func (m Model) Dirty() bool {
	return m.area.Value() != m.original
}

func (m Model) Value() string {
	return m.area.Value()
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.area.SetWidth(max(w-4, 20))
	m.area.SetHeight(max(h-5, 3))
}

func (m Model) Init() tea.Cmd { return textarea.Blink }

// check parses the buffer and records either a step summary or the error.
func (m *Model) check() bool {
	p, err := pipelineconf.Parse(m.area.Value())
	if err != nil {
		m.err = err
		m.summary = ""
		return false
	}
	m.err = nil
	kinds := make(map[string]int)
	for _, s := range p.Steps {
		kinds[s.Kind]++
	}
	var parts []string
	for _, k := range []string{
		pipelineconf.KindCommand, pipelineconf.KindWait, pipelineconf.KindBlock,
		pipelineconf.KindInput, pipelineconf.KindTrigger, pipelineconf.KindGroup,
	} {
		if n := kinds[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, k))
		}
	}
	m.summary = fmt.Sprintf("%d steps", len(p.Steps))
	if len(parts) > 0 {
		m.summary += " (" + strings.Join(parts, ", ") + ")"
	}
	return true
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.active {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.active = false
			slug := m.pipeline.Slug
			return m, func() tea.Msg { return ResultMsg{Slug: slug} }
		case "ctrl+s":
			if !m.check() {
				return m, nil
			}
			if !m.Dirty() {
				m.active = false
				slug := m.pipeline.Slug
				return m, func() tea.Msg { return ResultMsg{Slug: slug} }
			}
			m.active = false
			res := ResultMsg{Saved: true, Slug: m.pipeline.Slug, Configuration: m.area.Value()}
			return m, func() tea.Msg { return res }
		case "ctrl+r":
			m.area.SetValue(m.original)
			m.check()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.area, cmd = m.area.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.active {
		return ""
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(ui.ColorPrimary).
		Render(" Pipeline steps: " + m.pipeline.Name)
	if m.Dirty() {
		title += ui.StyleWarning.Render(" [modified]")
	}

	var status string
	if m.err != nil {
		status = ui.StyleFailure.Render(" " + m.err.Error())
	} else {
		status = ui.StyleSuccess.Render(" ✓ " + m.summary)
	}
	help := ui.StyleMuted.Render(" ctrl+s: validate & save  ctrl+r: revert  esc: cancel")

	return lipgloss.JoinVertical(lipgloss.Left, title, m.area.View(), status, help)
}

package trigger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-playground/validator/v10"

	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/ui"
)

// ResultMsg is emitted when the form is submitted or dismissed.
type ResultMsg struct {
	Submitted bool
	Pipeline  string
	Request   model.CreateBuild
}

type field int

const (
	fieldBranch field = iota
	fieldCommit
	fieldMessage
	fieldCount
)

var validate = validator.New()

// Model is the new build form for one pipeline.
type Model struct {
	active   bool
	pipeline model.Pipeline
	inputs   [fieldCount]textinput.Model
	focused  field
	err      error
	width    int
	height   int
}

// New returns an active form prefilled with the pipeline's default branch.
func New(p model.Pipeline) Model {
	branch := textinput.New()
	branch.Placeholder = "main"
	branch.CharLimit = 255
	branch.SetValue(p.DefaultBranch)

	commit := textinput.New()
	commit.Placeholder = "HEAD"
	commit.CharLimit = 255
	commit.SetValue("HEAD")

	message := textinput.New()
	message.Placeholder = "optional build message"
	message.CharLimit = 500

	m := Model{active: true, pipeline: p}
	m.inputs[fieldBranch] = branch
	m.inputs[fieldCommit] = commit
	m.inputs[fieldMessage] = message
	for i := range m.inputs {
		m.inputs[i].Width = 40
	}
	m.inputs[fieldBranch].Focus()
	return m
}

func (m Model) IsActive() bool { return m.active }

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

// Request builds the create request from the current field values.
func (m Model) Request() model.CreateBuild {
	return model.CreateBuild{
		Branch:  strings.TrimSpace(m.inputs[fieldBranch].Value()),
		Commit:  strings.TrimSpace(m.inputs[fieldCommit].Value()),
		Message: strings.TrimSpace(m.inputs[fieldMessage].Value()),
	}
}

// Validate reports the first missing or malformed field.
func Validate(req model.CreateBuild) error {
	err := validate.Struct(req)
	if err == nil {
		if strings.ContainsAny(req.Branch, " \t") {
			return errors.New("branch must not contain whitespace")
		}
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return fmt.Errorf("%s is required", strings.ToLower(verrs[0].Field()))
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.active {
		return m, nil
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		m.active = false
		return m, emit(ResultMsg{Pipeline: m.pipeline.Slug})
	case "tab", "down":
		return m, m.focus(m.focused + 1)
	case "shift+tab", "up":
		return m, m.focus(m.focused - 1)
	case "enter":
		if m.focused < fieldCount-1 {
			return m, m.focus(m.focused + 1)
		}
		return m.submit()
	case "ctrl+s":
		return m.submit()
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	m.err = nil
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	req := m.Request()
	if err := Validate(req); err != nil {
		m.err = err
		return m, nil
	}
	m.active = false
	return m, emit(ResultMsg{Submitted: true, Pipeline: m.pipeline.Slug, Request: req})
}

func (m *Model) focus(f field) tea.Cmd {
	f = (f + fieldCount) % fieldCount
	m.inputs[m.focused].Blur()
	m.focused = f
	return m.inputs[f].Focus()
}

func emit(msg ResultMsg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func (m Model) View() string {
	if !m.active {
		return ""
	}

	labelStyle := lipgloss.NewStyle().Width(10).Foreground(ui.ColorMuted)
	focusedLabelStyle := lipgloss.NewStyle().Width(10).Bold(true).Foreground(ui.ColorPrimary)
	labels := [fieldCount]string{"Branch:", "Commit:", "Message:"}

	rows := make([]string, 0, int(fieldCount))
	for f := field(0); f < fieldCount; f++ {
		ls, cursor := labelStyle, "  "
		if f == m.focused {
			ls = focusedLabelStyle
			cursor = lipgloss.NewStyle().Foreground(ui.ColorPrimary).Render("> ")
		}
		rows = append(rows, fmt.Sprintf("%s%s %s", cursor, ls.Render(labels[f]), m.inputs[f].View()))
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(ui.ColorPrimary).
		MarginBottom(1).
		Render("New Build: " + m.pipeline.Name)

	footer := "tab: next field  enter/ctrl+s: create  esc: cancel"
	if m.err != nil {
		footer = ui.StyleFailure.Render("Error: "+m.err.Error()) + "\n" + footer
	}
	help := lipgloss.NewStyle().
		Foreground(ui.ColorMuted).
		MarginTop(1).
		Render(footer)

	body := lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n"), help)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorPrimary).
		Padding(1, 2).
		Width(64).
		Render(body)

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

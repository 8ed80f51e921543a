package confirm

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/bk-tui/internal/ui"
)

// BuildRef identifies a build for actions that need pipeline and number.
type BuildRef struct {
	Pipeline string
	Number   int
}

func (r BuildRef) String() string {
	return fmt.Sprintf("%s #%d", r.Pipeline, r.Number)
}

// JobRef identifies a job within a build.
type JobRef struct {
	BuildRef
	JobID   string
	JobName string
}

type ResultMsg struct {
	Confirmed bool
	Action    string
	Data      any
}

type Model struct {
	Title    string
	Message  string
	Action   string
	Data     any
	active   bool
	selected bool // true = confirm selected
	width    int
	height   int
}

func New(title, message, action string, data any) Model {
	return Model{
		Title:   title,
		Message: message,
		Action:  action,
		Data:    data,
		active:  true,
	}
}

func (m Model) IsActive() bool { return m.active }

// SetSize stores terminal dimensions so the dialog can centre itself.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) result(confirmed bool) tea.Cmd {
	r := ResultMsg{Confirmed: confirmed, Action: m.Action, Data: m.Data}
	return func() tea.Msg { return r }
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.active {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "y", "Y":
			m.active = false
			return m, m.result(true)
		case "n", "N", "esc":
			m.active = false
			return m, m.result(false)
		case "enter":
			m.active = false
			return m, m.result(m.selected)
		case "tab", "left", "right", "h", "l":
			m.selected = !m.selected
		}
	}
	return m, nil
}

// destructive actions stop work or drop data and are drawn in red.
var destructive = map[string]bool{
	"cancel-build":       true,
	"cancel-selected":    true,
	"delete-cached-logs": true,
	"clear-log-cache":    true,
}

func (m Model) accent() lipgloss.Color {
	if destructive[m.Action] {
		return ui.ColorFailure
	}
	return ui.ColorWarning
}

func (m Model) View() string {
	if !m.active {
		return ""
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.accent()).
		Padding(1, 2).
		Width(50)

	title := lipgloss.NewStyle().Bold(true).
		Foreground(m.accent()).
		Render(m.Title)

	yesStyle := lipgloss.NewStyle().Padding(0, 1)
	noStyle := lipgloss.NewStyle().Padding(0, 1)

	if m.selected {
		yesStyle = yesStyle.Bold(true).Background(ui.ColorSuccess).Foreground(lipgloss.Color("#F9FAFB"))
		noStyle = noStyle.Foreground(ui.ColorMuted)
	} else {
		yesStyle = yesStyle.Foreground(ui.ColorMuted)
		noStyle = noStyle.Bold(true).Background(ui.ColorFailure).Foreground(lipgloss.Color("#F9FAFB"))
	}

	content := fmt.Sprintf("%s\n\n%s\n\n%s  %s\n\ny/n to confirm, esc to cancel",
		title, m.Message,
		yesStyle.Render("Yes"), noStyle.Render("No"))

	box := style.Render(content)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

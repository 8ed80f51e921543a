package filteroverlay

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/ops"
	"github.com/altinukshini/bk-tui/internal/timefmt"
	"github.com/altinukshini/bk-tui/internal/ui"
)

// ---------------------------------------------------------------------------
// Filter result
// ---------------------------------------------------------------------------

// FilterResult holds the filter values selected by the user.
type FilterResult struct {
	State      string
	DatePreset string
	Branch     string
	Creator    string
}

// IsEmpty returns true when no filter criteria are set.
func (f FilterResult) IsEmpty() bool {
	return f.State == "" && f.DatePreset == "" && f.Branch == "" && f.Creator == ""
}

// Range resolves the date preset against now; zero when no preset is set.
func (f FilterResult) Range(now time.Time) timefmt.DateRange {
	if f.DatePreset == "" {
		return timefmt.DateRange{}
	}
	return timefmt.RangeFromPreset(f.DatePreset, now)
}

// BuildFilter converts the result for client-side filtering.
func (f FilterResult) BuildFilter(now time.Time) ops.BuildFilter {
	return ops.BuildFilter{
		Branch:  f.Branch,
		State:   f.State,
		Creator: f.Creator,
		Range:   f.Range(now),
	}
}

// Summary returns a short human-readable summary suitable for a tab label.
func (f FilterResult) Summary() string {
	var parts []string
	if f.State != "" {
		parts = append(parts, "state:"+f.State)
	}
	if f.DatePreset != "" {
		parts = append(parts, "created:"+f.DatePreset)
	}
	if f.Branch != "" {
		parts = append(parts, "branch:"+f.Branch)
	}
	if f.Creator != "" {
		parts = append(parts, "by:"+f.Creator)
	}
	return strings.Join(parts, " ")
}

// ---------------------------------------------------------------------------
// Result message
// ---------------------------------------------------------------------------

// ResultMsg is emitted when the user applies or cancels the filter.
type ResultMsg struct {
	Applied bool
	Filter  FilterResult
}

// ---------------------------------------------------------------------------
// Field enum
// ---------------------------------------------------------------------------

type field int

const (
	fieldState field = iota
	fieldDate
	fieldBranch
	fieldCreator
	fieldCount
)

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

// Model is the Bubble Tea model for the builds filter overlay.
type Model struct {
	active   bool
	focused  field
	states   []string
	presets  []string
	stateIdx int // -1 = all
	dateIdx  int // -1 = any time
	branch   textinput.Model
	creator  textinput.Model
	width    int
	height   int
}

// New creates a new filter overlay pre-populated with the current filter
// values. The overlay starts in the active state.
func New(current FilterResult) Model {
	branch := textinput.New()
	branch.Placeholder = "e.g. main"
	branch.CharLimit = 128
	branch.Width = 30
	branch.SetValue(current.Branch)

	creator := textinput.New()
	creator.Placeholder = "e.g. Jane Doe"
	creator.CharLimit = 128
	creator.Width = 30
	creator.SetValue(current.Creator)

	m := Model{
		active:   true,
		states:   model.BuildStates,
		presets:  timefmt.Presets(),
		stateIdx: indexOf(model.BuildStates, current.State),
		branch:   branch,
		creator:  creator,
	}
	m.dateIdx = indexOf(m.presets, current.DatePreset)
	return m
}

func indexOf(options []string, v string) int {
	if v == "" {
		return -1
	}
	for i, o := range options {
		if o == v {
			return i
		}
	}
	return -1
}

// IsActive reports whether the overlay is currently visible.
func (m Model) IsActive() bool { return m.active }

// SetSize stores terminal dimensions so the overlay can centre itself.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Init satisfies the tea.Model interface.
func (m Model) Init() tea.Cmd { return nil }

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

// Update handles key events while the overlay is active.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.active {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	// When a text input is focused, let it handle most keys first.
	if m.isTextFieldFocused() {
		switch keyMsg.String() {
		case "esc":
			m.active = false
			return m, emitResult(false, FilterResult{})
		case "enter":
			m.blurTextInputs()
			return m, nil
		case "up":
			m.blurTextInputs()
			m.moveFocus(-1)
			return m, nil
		case "down":
			m.blurTextInputs()
			m.moveFocus(1)
			return m, nil
		case "tab":
			m.blurTextInputs()
			m.moveFocus(1)
			return m, m.focusCurrentTextInput()
		case "shift+tab":
			m.blurTextInputs()
			m.moveFocus(-1)
			return m, m.focusCurrentTextInput()
		default:
			var cmd tea.Cmd
			if m.focused == fieldBranch {
				m.branch, cmd = m.branch.Update(msg)
			} else {
				m.creator, cmd = m.creator.Update(msg)
			}
			return m, cmd
		}
	}

	switch keyMsg.String() {
	case "j", "down", "tab":
		m.moveFocus(1)
		return m, nil
	case "k", "up", "shift+tab":
		m.moveFocus(-1)
		return m, nil

	// Cycle forward / enter text input.
	case "enter", "right", "l":
		switch m.focused {
		case fieldState:
			m.stateIdx = cycleForward(m.stateIdx, len(m.states))
		case fieldDate:
			m.dateIdx = cycleForward(m.dateIdx, len(m.presets))
		case fieldBranch, fieldCreator:
			return m, m.focusCurrentTextInput()
		}
		return m, nil

	// Cycle backward.
	case "left", "h":
		switch m.focused {
		case fieldState:
			m.stateIdx = cycleBackward(m.stateIdx, len(m.states))
		case fieldDate:
			m.dateIdx = cycleBackward(m.dateIdx, len(m.presets))
		}
		return m, nil

	// Apply.
	case "a":
		m.active = false
		return m, emitResult(true, m.buildFilterResult())

	// Clear.
	case "c":
		m.stateIdx = -1
		m.dateIdx = -1
		m.branch.SetValue("")
		m.creator.SetValue("")
		return m, nil

	// Cancel.
	case "esc":
		m.active = false
		return m, emitResult(false, FilterResult{})
	}

	return m, nil
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// View renders the overlay.
func (m Model) View() string {
	if !m.active {
		return ""
	}

	labelStyle := lipgloss.NewStyle().Width(12).Foreground(ui.ColorMuted)
	focusedLabelStyle := lipgloss.NewStyle().Width(12).Bold(true).Foreground(ui.ColorPrimary)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))
	allStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted).Italic(true)

	rows := make([]string, 0, int(fieldCount))

	for f := field(0); f < fieldCount; f++ {
		ls := labelStyle
		if f == m.focused {
			ls = focusedLabelStyle
		}

		var label, value string
		switch f {
		case fieldState:
			label = "State:"
			if m.stateIdx < 0 {
				value = allStyle.Render("All states")
			} else {
				value = ui.StatusStyle(model.Build{State: m.states[m.stateIdx]}.Status()).Render(m.states[m.stateIdx])
			}
		case fieldDate:
			label = "Created:"
			if m.dateIdx < 0 {
				value = allStyle.Render("Any time")
			} else {
				value = valueStyle.Render(m.presets[m.dateIdx])
			}
		case fieldBranch:
			label = "Branch:"
			value = m.branch.View()
		case fieldCreator:
			label = "Creator:"
			value = m.creator.View()
		}

		cursor := "  "
		if f == m.focused {
			cursor = lipgloss.NewStyle().Foreground(ui.ColorPrimary).Render("> ")
		}

		rows = append(rows, fmt.Sprintf("%s%s %s", cursor, ls.Render(label), value))
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(ui.ColorPrimary).
		MarginBottom(1).
		Render("Filter Builds")

	help := lipgloss.NewStyle().
		Foreground(ui.ColorMuted).
		MarginTop(1).
		Render("a: apply  c: clear  esc: cancel")

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		strings.Join(rows, "\n"),
		help,
	)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorPrimary).
		Padding(1, 2).
		Width(56)

	box := boxStyle.Render(body)

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			box)
	}
	return box
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (m *Model) moveFocus(delta int) {
	next := int(m.focused) + delta
	if next < 0 {
		next = int(fieldCount) - 1
	}
	if next >= int(fieldCount) {
		next = 0
	}
	m.focused = field(next)
}

func (m Model) isTextFieldFocused() bool {
	return m.branch.Focused() || m.creator.Focused()
}

func (m *Model) blurTextInputs() {
	m.branch.Blur()
	m.creator.Blur()
}

func (m *Model) focusCurrentTextInput() tea.Cmd {
	switch m.focused {
	case fieldBranch:
		return m.branch.Focus()
	case fieldCreator:
		return m.creator.Focus()
	}
	return nil
}

func (m Model) buildFilterResult() FilterResult {
	r := FilterResult{
		Branch:  strings.TrimSpace(m.branch.Value()),
		Creator: strings.TrimSpace(m.creator.Value()),
	}
	if m.stateIdx >= 0 && m.stateIdx < len(m.states) {
		r.State = m.states[m.stateIdx]
	}
	if m.dateIdx >= 0 && m.dateIdx < len(m.presets) {
		r.DatePreset = m.presets[m.dateIdx]
	}
	return r
}

// cycleForward advances the index by one. -1 means "all", 0..max-1 are the
// actual entries, and going past the last entry wraps back to -1 (all).
func cycleForward(idx, count int) int {
	if count == 0 {
		return -1
	}
	idx++
	if idx >= count {
		idx = -1
	}
	return idx
}

// cycleBackward is the reverse of cycleForward.
func cycleBackward(idx, count int) int {
	if count == 0 {
		return -1
	}
	idx--
	if idx < -1 {
		idx = count - 1
	}
	return idx
}

func emitResult(applied bool, f FilterResult) tea.Cmd {
	return func() tea.Msg {
		return ResultMsg{Applied: applied, Filter: f}
	}
}

package logview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/bk-tui/internal/logs"
	"github.com/altinukshini/bk-tui/internal/search"
	"github.com/altinukshini/bk-tui/internal/ui"
)

// typeFilters is the cycle order of the "e" key; "" shows every line.
var typeFilters = []logs.Type{"", logs.TypeError, logs.TypeWarning, logs.TypeCommand}

type Model struct {
	viewport viewport.Model
	lines    []logs.Line
	rows     []int // indices into lines of the visible rows
	jobID    string
	jobName  string
	width    int
	height   int
	ready    bool
	loading  bool
	loaded   bool

	showTimestamps bool
	filterIdx      int

	// In-log search
	engine      *search.Engine
	searchInput textinput.Model
	searching   bool
	searchQuery string
	matchLines  []int // visible row indices of matches
	matchIndex  int

	// Jump highlight (from cross-log search result)
	jumpLine int // 0-based index into lines, -1 = none

	// Live tailing for running jobs
	tailing bool
}

func New() Model {
	ti := textinput.New()
	ti.Placeholder = "Search in log (prefix / for regex)..."
	ti.CharLimit = 256
	return Model{searchInput: ti, engine: search.New(), jumpLine: -1}
}

// SetContent shows freshly processed lines for a job and resets search state.
func (m *Model) SetContent(jobID, jobName string, lines []logs.Line) {
	m.jobID = jobID
	m.jobName = jobName
	m.lines = lines
	m.loading = false
	m.loaded = true
	m.searchQuery = ""
	m.matchLines = nil
	m.matchIndex = 0
	m.jumpLine = -1
	m.layoutRows()
	if m.ready {
		m.viewport.SetContent(m.render())
		m.viewport.GotoTop()
	}
}

func (m *Model) SetLoading() {
	m.loading = true
}

func (m Model) JobID() string {
	return m.jobID
}

// Lines returns the processed lines currently shown.
func (m Model) Lines() []logs.Line {
	return m.lines
}

// GotoLine scrolls to a 1-based line of the log and highlights it.
func (m *Model) GotoLine(line int) {
	if line <= 0 || line > len(m.lines) {
		return
	}
	m.jumpLine = line - 1
	if m.filterIdx != 0 {
		m.filterIdx = 0
		m.layoutRows()
	}
	m.viewport.SetContent(m.render())
	m.viewport.SetYOffset(m.rowOf(m.jumpLine))
}

// UpdateContent replaces the lines while preserving scroll position.
// If the viewport was at the bottom (following), it auto-scrolls to bottom.
func (m *Model) UpdateContent(lines []logs.Line) {
	m.lines = lines
	m.loading = false
	m.loaded = true
	m.layoutRows()
	if m.searchQuery != "" {
		m.findMatches()
	}
	if !m.ready {
		return
	}

	wasAtBottom := m.viewport.AtBottom()
	prevOffset := m.viewport.YOffset

	m.viewport.SetContent(m.render())

	if wasAtBottom {
		m.viewport.GotoBottom()
	} else {
		maxOffset := m.viewport.TotalLineCount() - m.viewport.VisibleLineCount()
		if maxOffset < 0 {
			maxOffset = 0
		}
		if prevOffset > maxOffset {
			m.viewport.GotoBottom()
		} else {
			m.viewport.SetYOffset(prevOffset)
		}
	}
}

func (m *Model) SetTailing(tailing bool) {
	m.tailing = tailing
}

func (m Model) IsTailing() bool {
	return m.tailing
}

func (m Model) IsSearching() bool {
	return m.searching
}

func (m Model) TypeFilter() logs.Type {
	return typeFilters[m.filterIdx]
}

func (m Model) MatchCount() int {
	return len(m.matchLines)
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "enter":
				query := m.searchInput.Value()
				if query != "" {
					m.searchQuery = query
					m.findMatches()
					m.viewport.SetContent(m.render())
					if len(m.matchLines) > 0 {
						m.matchIndex = 0
						m.viewport.SetYOffset(m.matchLines[0])
					}
				}
				m.searching = false
				m.searchInput.Blur()
				m.resize()
				return m, nil
			case "esc":
				m.searching = false
				m.searchInput.Blur()
				m.resize()
				return m, nil
			}
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "/":
			m.searching = true
			m.jumpLine = -1
			m.searchInput.SetValue("")
			m.searchInput.Focus()
			m.resize()
			return m, textinput.Blink
		case "n":
			if len(m.matchLines) > 0 {
				m.matchIndex = (m.matchIndex + 1) % len(m.matchLines)
				m.viewport.SetContent(m.render())
				m.viewport.SetYOffset(m.matchLines[m.matchIndex])
			}
			return m, nil
		case "N":
			if len(m.matchLines) > 0 {
				m.matchIndex = (m.matchIndex - 1 + len(m.matchLines)) % len(m.matchLines)
				m.viewport.SetContent(m.render())
				m.viewport.SetYOffset(m.matchLines[m.matchIndex])
			}
			return m, nil
		case "t":
			m.showTimestamps = !m.showTimestamps
			m.viewport.SetContent(m.render())
			return m, nil
		case "e":
			m.filterIdx = (m.filterIdx + 1) % len(typeFilters)
			m.layoutRows()
			if m.searchQuery != "" {
				m.findMatches()
			}
			m.viewport.SetContent(m.render())
			m.viewport.GotoTop()
			return m, nil
		case "g":
			m.viewport.GotoTop()
			return m, nil
		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-m.headerHeight())
			m.ready = true
			if m.loaded {
				m.viewport.SetContent(m.render())
			}
		} else {
			m.resize()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) headerHeight() int {
	if m.searching {
		return 2
	}
	return 1
}

func (m *Model) resize() {
	if !m.ready {
		return
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-m.headerHeight(), 1)
}

func (m *Model) layoutRows() {
	want := m.TypeFilter()
	m.rows = make([]int, 0, len(m.lines))
	for i, l := range m.lines {
		if want == "" || l.Type == want {
			m.rows = append(m.rows, i)
		}
	}
}

// rowOf maps a line index to its visible row, or 0 when hidden.
func (m Model) rowOf(lineIdx int) int {
	for r, i := range m.rows {
		if i == lineIdx {
			return r
		}
	}
	return 0
}

func (m *Model) findMatches() {
	m.matchLines = nil
	m.matchIndex = 0
	if m.searchQuery == "" || len(m.lines) == 0 {
		return
	}

	query := search.ParseQuery(m.searchQuery, m.TypeFilter())
	results := m.engine.Search(m.jobID, m.jobName, m.lines, query)

	rowByLine := make(map[int]int, len(m.rows))
	for r, i := range m.rows {
		rowByLine[i] = r
	}
	for _, match := range results.Matches {
		if r, ok := rowByLine[match.Line-1]; ok {
			m.matchLines = append(m.matchLines, r)
		}
	}
}

// render styles every visible line by its type and overlays match and jump
// highlights.
func (m Model) render() string {
	if len(m.rows) == 0 {
		if len(m.lines) == 0 {
			return ui.StyleMuted.Render("  No output")
		}
		return ui.StyleMuted.Render(fmt.Sprintf("  No %s lines", m.TypeFilter()))
	}

	matchSet := make(map[int]bool, len(m.matchLines))
	for _, r := range m.matchLines {
		matchSet[r] = true
	}
	currentMatch := -1
	if m.matchIndex >= 0 && m.matchIndex < len(m.matchLines) {
		currentMatch = m.matchLines[m.matchIndex]
	}

	highlight := lipgloss.NewStyle().Background(lipgloss.Color("#374151"))
	current := lipgloss.NewStyle().Background(lipgloss.Color("#92400E")).Bold(true)

	out := make([]string, len(m.rows))
	for r, i := range m.rows {
		l := m.lines[i]
		text := l.Content
		if m.showTimestamps {
			stamp := l.Timestamp
			if stamp == "" {
				stamp = strings.Repeat(" ", 19)
			}
			text = ui.StyleMuted.Render(stamp) + " " + text
		}

		switch {
		case r == currentMatch, i == m.jumpLine:
			out[r] = current.Render(text)
		case matchSet[r]:
			out[r] = highlight.Render(text)
		default:
			out[r] = ui.LogStyle(l.Type).Render(text)
		}
	}
	return strings.Join(out, "\n")
}

func (m Model) View() string {
	if m.loading {
		return "\n  Loading logs..."
	}
	if !m.loaded {
		return "\n  Select a job to view logs"
	}

	liveTag := ""
	if m.tailing {
		liveTag = lipgloss.NewStyle().Bold(true).Foreground(ui.ColorSuccess).Render(" [LIVE]")
	}
	headerParts := fmt.Sprintf(" %s%s  %3.f%%", m.jobName, liveTag, m.viewport.ScrollPercent()*100)
	if f := m.TypeFilter(); f != "" {
		headerParts += fmt.Sprintf("  [%s only]", f)
	}
	if m.searchQuery != "" && len(m.matchLines) > 0 {
		headerParts += fmt.Sprintf("  [%d/%d matches]", m.matchIndex+1, len(m.matchLines))
	} else if m.searchQuery != "" {
		headerParts += "  [no matches]"
	}
	hints := ui.StyleMuted.Render(
		"  /:search  n/N:match  e:type  t:time  g/G:top/bot  esc:back")
	header := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(headerParts) + hints

	if m.searching {
		searchLine := "  /" + m.searchInput.View()
		return header + "\n" + searchLine + "\n" + m.viewport.View()
	}

	return header + "\n" + m.viewport.View()
}

package searchview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/altinukshini/bk-tui/internal/logs"
	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/search"
	"github.com/altinukshini/bk-tui/internal/ui"
)

type Mode int

const (
	ModeInput Mode = iota
	ModeResults
)

// typeFilters is the cycle order of tab in input mode.
var typeFilters = []logs.Type{"", logs.TypeError, logs.TypeWarning, logs.TypeCommand}

// RequestMsg asks the parent to search the cached logs of the current build.
type RequestMsg struct {
	Query model.SearchQuery
}

type Model struct {
	input     textinput.Model
	viewport  viewport.Model
	results   []*model.SearchResults
	matches   []model.SearchResult
	filterIdx int
	mode      Mode
	cursor    int
	width     int
	height    int
	loading   bool
	active    bool
	ready     bool
	err       error
}

func New() Model {
	ti := textinput.New()
	ti.Placeholder = "Search cached logs (prefix / for regex)"
	ti.CharLimit = 256

	return Model{
		input: ti,
	}
}

func (m *Model) Activate() {
	m.active = true
	m.mode = ModeInput
	m.err = nil
	m.input.Focus()
}

func (m *Model) Deactivate() {
	m.active = false
	m.input.Blur()
}

func (m Model) IsActive() bool {
	return m.active
}

// IsInputMode returns true when the search view is in input mode (typing a query).
func (m Model) IsInputMode() bool {
	return m.mode == ModeInput
}

// ActivateResults re-enters the search view in results mode,
// preserving existing results and cursor position.
func (m *Model) ActivateResults() {
	m.active = true
	m.mode = ModeResults
	m.input.Blur()
}

func (m Model) Query() model.SearchQuery {
	return search.ParseQuery(m.input.Value(), typeFilters[m.filterIdx])
}

func (m Model) SelectedMatch() *model.SearchResult {
	if m.cursor < 0 || m.cursor >= len(m.matches) {
		return nil
	}
	return &m.matches[m.cursor]
}

// TotalCount is the number of matches across all searched jobs.
func (m Model) TotalCount() int {
	return len(m.matches)
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.SearchDoneMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.setResults(msg.Results)
		m.mode = ModeResults
		m.input.Blur()
		m.refresh()

	case tea.KeyMsg:
		if m.mode == ModeInput {
			switch msg.String() {
			case "enter":
				q := m.Query()
				if q.Pattern == "" {
					return m, nil
				}
				if !search.Valid(q) {
					m.err = fmt.Errorf("invalid regex %q", q.Pattern)
					return m, nil
				}
				m.err = nil
				m.loading = true
				return m, func() tea.Msg { return RequestMsg{Query: q} }
			case "tab":
				m.filterIdx = (m.filterIdx + 1) % len(typeFilters)
				return m, nil
			case "esc":
				m.Deactivate()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, ui.Keys.Down):
			if m.cursor < len(m.matches)-1 {
				m.cursor++
				m.refresh()
				m.follow()
			}
			return m, nil
		case key.Matches(msg, ui.Keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.refresh()
				m.follow()
			}
			return m, nil
		case key.Matches(msg, ui.Keys.Search):
			m.mode = ModeInput
			m.input.Focus()
			return m, textinput.Blink
		case key.Matches(msg, ui.Keys.Back):
			m.Deactivate()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(msg.Height-3, 1))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(msg.Height-3, 1)
		}
		m.refresh()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// setResults flattens per-job results, ordered by job name, into one list.
func (m *Model) setResults(results []*model.SearchResults) {
	sorted := make([]*model.SearchResults, 0, len(results))
	for _, r := range results {
		if r != nil && r.TotalCount > 0 {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Matches[0].JobName < sorted[j].Matches[0].JobName
	})
	m.results = sorted
	m.matches = nil
	for _, r := range sorted {
		m.matches = append(m.matches, r.Matches...)
	}
	m.cursor = 0
}

func (m *Model) refresh() {
	if m.ready {
		m.viewport.SetContent(m.renderResults())
	}
}

// follow keeps the cursor row inside the viewport.
func (m *Model) follow() {
	row := m.cursorRow()
	switch {
	case row < m.viewport.YOffset:
		m.viewport.SetYOffset(row)
	case row >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(row - m.viewport.Height + 1)
	}
}

// cursorRow is the rendered line of the cursor: two summary lines, a blank,
// then each job's header followed by its matches.
func (m Model) cursorRow() int {
	row := 3
	idx := 0
	for _, r := range m.results {
		row++
		if m.cursor < idx+len(r.Matches) {
			return row + m.cursor - idx
		}
		row += len(r.Matches)
		idx += len(r.Matches)
	}
	return row
}

func typeSummary(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderResults() string {
	if len(m.matches) == 0 {
		return "  No matches"
	}

	bold := lipgloss.NewStyle().Bold(true)
	highlight := lipgloss.NewStyle().Background(ui.ColorHighlight)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("  %d matches across %d jobs\n", len(m.matches), len(m.results)))
	b.WriteString(ui.StyleMuted.Render("  enter:view log  j/k:navigate  /:new search  esc:close") + "\n\n")

	idx := 0
	for _, r := range m.results {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			bold.Render(r.Matches[0].JobName),
			ui.StyleMuted.Render(fmt.Sprintf("(%d: %s)", r.TotalCount, typeSummary(r.TypeCounts)))))
		for _, match := range r.Matches {
			cursor := "  "
			if idx == m.cursor {
				cursor = "> "
			}
			content := match.Content
			if m.width > 16 {
				content = runewidth.Truncate(content, m.width-12, "…")
			}
			line := fmt.Sprintf("%s  L%-5d %s", cursor, match.Line, content)
			switch {
			case idx == m.cursor:
				line = highlight.Render(line)
			default:
				line = ui.LogStyle(logs.Type(match.Type)).Render(line)
			}
			b.WriteString(line + "\n")
			idx++
		}
	}
	return b.String()
}

func (m Model) View() string {
	if !m.active {
		return ""
	}

	var b strings.Builder
	filter := "all lines"
	if f := typeFilters[m.filterIdx]; f != "" {
		filter = string(f) + " only"
	}
	b.WriteString("  " + m.input.View() + "  " + ui.StyleMuted.Render("["+filter+"] tab:type") + "\n")

	switch {
	case m.err != nil:
		b.WriteString(ui.StyleFailure.Render(fmt.Sprintf("\n  Error: %v", m.err)))
	case m.loading:
		b.WriteString("\n  Searching...")
	case m.ready && m.mode == ModeResults:
		b.WriteString(m.viewport.View())
	}
	return b.String()
}

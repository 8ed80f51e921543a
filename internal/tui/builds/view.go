package builds

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/timefmt"
	"github.com/altinukshini/bk-tui/internal/ui"
)

// NeedNextPageMsg is emitted when the cursor is at the bottom and user presses down.
type NeedNextPageMsg struct{}

// rowOptions is shared between the model and its delegate.
type rowOptions struct {
	selected map[int]bool
	utc      bool
	clock    timefmt.Clock
}

// --- Custom delegate (avoids DefaultDelegate ANSI corruption during filtering) ---

type buildDelegate struct {
	opts *rowOptions
}

func (d buildDelegate) Height() int                             { return 2 }
func (d buildDelegate) Spacing() int                            { return 0 }
func (d buildDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d buildDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	bi, ok := item.(buildItem)
	if !ok {
		return
	}
	b := bi.build
	now := d.opts.clock.Now()

	mark := " "
	if d.opts.selected[b.Number] {
		mark = ui.StyleWarning.Render("●")
	}

	icon := ui.StatusIcon(b.Status())
	branch := ui.StyleInfo.Render(b.Branch)
	dur := ui.StyleMuted.Render(b.Duration(now))

	created := ""
	if b.CreatedAt != nil {
		created = timefmt.FormatDate(*b.CreatedAt, d.opts.utc, "", now)
	}
	by := b.CreatedBy()
	if by != "" {
		created += " by " + by
	}

	line1 := fmt.Sprintf(" %s%s #%d %s  %s", mark, icon, b.Number, branch, dur)
	title := b.Title()
	if avail := m.Width() - 4; avail > 0 {
		title = runewidth.Truncate(title, avail, "…")
		created = runewidth.Truncate(created, avail, "…")
	}
	line2 := fmt.Sprintf("    %s  %s", title, ui.StyleMuted.Render(created))

	if index == m.Index() {
		hl := lipgloss.NewStyle().Background(ui.ColorHighlight).Width(m.Width())
		line1 = hl.Render(line1)
		line2 = hl.Render(line2)
	}

	fmt.Fprintf(w, "%s\n%s", line1, line2)
}

// --- Item ---

type buildItem struct {
	build model.Build
}

func (b buildItem) FilterValue() string {
	return strconv.Itoa(b.build.Number) + " " + b.build.Title() + " " + b.build.Branch + " " + b.build.CreatedBy()
}

// --- Model ---

type Model struct {
	list    list.Model
	builds  []model.Build
	opts    *rowOptions
	width   int
	height  int
	loading bool
	err     error
}

func New(clock timefmt.Clock) Model {
	opts := &rowOptions{selected: make(map[int]bool), clock: clock}
	delegate := buildDelegate{opts: opts}

	l := list.New(nil, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowFilter(true)
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("build", "builds")
	l.KeyMap.Filter = key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter"))
	// l/h/left/right page through the API; keep the list's own paging on
	// pgup/pgdown so a key is never handled twice.
	l.KeyMap.NextPage = key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "next page"))
	l.KeyMap.PrevPage = key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "prev page"))
	l.DisableQuitKeybindings()

	return Model{
		list:    l,
		opts:    opts,
		loading: true,
	}
}

// SetUTC switches creation dates between local time and UTC.
func (m *Model) SetUTC(utc bool) {
	m.opts.utc = utc
}

func (m Model) SelectedBuild() *model.Build {
	if item, ok := m.list.SelectedItem().(buildItem); ok {
		return &item.build
	}
	return nil
}

// SelectedBuilds returns all multi-selected build numbers.
func (m Model) SelectedBuilds() []int {
	var numbers []int
	for n := range m.opts.selected {
		numbers = append(numbers, n)
	}
	return numbers
}

func (m Model) SelectionCount() int {
	return len(m.opts.selected)
}

func (m *Model) ClearSelection() {
	clear(m.opts.selected)
}

// BuildByNumber returns a pointer to the build with the given number, or nil.
func (m Model) BuildByNumber(n int) *model.Build {
	for i := range m.builds {
		if m.builds[i].Number == n {
			return &m.builds[i]
		}
	}
	return nil
}

// Builds returns the builds currently listed.
func (m Model) Builds() []model.Build {
	return m.builds
}

// AnyRunning reports whether a listed build is still in progress.
func (m Model) AnyRunning() bool {
	for _, b := range m.builds {
		if b.Running() {
			return true
		}
	}
	return false
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m *Model) setBuilds(builds []model.Build, resetCursor bool) tea.Cmd {
	m.builds = builds
	m.err = nil
	items := make([]list.Item, len(builds))
	for i, b := range builds {
		items[i] = buildItem{build: b}
	}
	idx := m.list.Index()
	cmd := m.list.SetItems(items)
	if resetCursor || idx >= len(items) {
		m.list.Select(0)
	} else {
		m.list.Select(idx)
	}
	return cmd
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.BuildsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		// Polling refreshes keep the cursor where the user left it.
		return m, m.setBuilds(msg.Builds, false)

	case ui.BuildsPageMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.ClearSelection()
		return m, m.setBuilds(msg.Builds, true)

	case tea.KeyMsg:
		// The list's updateKeybindings can disable the filter binding (e.g.
		// after SetSize with zero items).
		if msg.String() == "f" && !m.IsFiltering() && len(m.list.Items()) > 0 {
			m.list.KeyMap.Filter.SetEnabled(true)
		}

		if !m.IsFiltering() {
			isDown := msg.String() == "j" || msg.Type == tea.KeyDown
			if isDown && len(m.list.Items()) > 0 && m.list.Index() >= len(m.list.Items())-1 {
				return m, func() tea.Msg { return NeedNextPageMsg{} }
			}
		}

		// Toggle selection with space (stay on current row)
		if msg.String() == " " && !m.IsFiltering() {
			if item, ok := m.list.SelectedItem().(buildItem); ok {
				n := item.build.Number
				if m.opts.selected[n] {
					delete(m.opts.selected, n)
				} else {
					m.opts.selected[n] = true
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.loading {
		return "\n  Loading builds..."
	}
	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v", m.err)
	}
	if len(m.builds) == 0 {
		return "\n  No builds"
	}
	return m.list.View()
}

func (m Model) IsFiltering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) HasActiveFilter() bool {
	return m.list.FilterState() != list.Unfiltered
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{
		ui.Keys.Enter,
		ui.Keys.Search,
		ui.Keys.Filter,
		ui.Keys.Refresh,
	}
}

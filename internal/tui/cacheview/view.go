package cacheview

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/bk-tui/internal/cache"
	"github.com/altinukshini/bk-tui/internal/timefmt"
	"github.com/altinukshini/bk-tui/internal/ui"
)

// DeleteRequestMsg asks the parent to drop cached logs.
type DeleteRequestMsg struct {
	Metas []cache.CacheMeta
}

// ClearRequestMsg asks the parent to empty the cache.
type ClearRequestMsg struct{}

type cacheItem struct {
	entry    cache.CacheEntry
	selected bool
	now      time.Time
}

func (c cacheItem) Title() string {
	mark := " "
	if c.selected {
		mark = ui.StyleWarning.Render("● ")
	}
	name := c.entry.JobName
	if name == "" {
		name = c.entry.JobID
	}
	size := ui.StyleWarning.Render(formatSize(c.entry.Size))
	return fmt.Sprintf("%s%s  %s", mark, name, size)
}

func (c cacheItem) Description() string {
	parts := []string{
		ui.StyleInfo.Render(fmt.Sprintf("%s #%d", c.entry.Pipeline, c.entry.BuildNumber)),
		ui.StyleMuted.Render(fmt.Sprintf("%d lines", c.entry.Lines)),
	}
	if !c.entry.StoredAt.IsZero() {
		parts = append(parts, ui.StyleMuted.Render("cached "+relativeTime(c.entry.StoredAt, c.now)))
	}
	if !c.entry.LastAccessed.IsZero() {
		parts = append(parts, ui.StyleMuted.Render("last used "+relativeTime(c.entry.LastAccessed, c.now)))
	}
	return strings.Join(parts, "  ")
}

func (c cacheItem) FilterValue() string {
	return fmt.Sprintf("%s %s %d", c.entry.JobName, c.entry.Pipeline, c.entry.BuildNumber)
}

// SortMode determines how cache entries are ordered.
type SortMode int

const (
	SortByAccessed SortMode = iota
	SortByDate
	SortBySize
)

func (s SortMode) String() string {
	switch s {
	case SortByDate:
		return "cached"
	case SortBySize:
		return "size"
	default:
		return "last used"
	}
}

// Model lists the processed logs held in memory.
type Model struct {
	list      list.Model
	entries   []cache.CacheEntry
	selected  map[string]bool
	sortMode  SortMode
	totalSize int64
	clock     timefmt.Clock
	width     int
	height    int
	loading   bool
}

func New(clock timefmt.Clock) Model {
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.KeyMap.Filter = key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter"))
	l.DisableQuitKeybindings()

	return Model{list: l, selected: make(map[string]bool), clock: clock, loading: true}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.LogCacheMsg:
		m.loading = false
		m.entries = msg.Entries
		m.totalSize = 0
		present := make(map[string]bool, len(m.entries))
		for _, e := range m.entries {
			m.totalSize += e.Size
			present[e.Key()] = true
		}
		for k := range m.selected {
			if !present[k] {
				delete(m.selected, k)
			}
		}
		m.sortEntries()
		cmd := m.list.SetItems(m.buildItems())
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Reserve one line for the header.
		m.list.SetSize(msg.Width, msg.Height-1)

	case tea.KeyMsg:
		if m.IsFiltering() {
			break
		}
		switch msg.String() {
		case " ":
			if item, ok := m.list.SelectedItem().(cacheItem); ok {
				k := item.entry.Key()
				if m.selected[k] {
					delete(m.selected, k)
				} else {
					m.selected[k] = true
				}
				cmd := m.list.SetItems(m.buildItems())
				return m, cmd
			}
			return m, nil
		case "s":
			m.sortMode = (m.sortMode + 1) % 3
			m.sortEntries()
			cmd := m.list.SetItems(m.buildItems())
			return m, cmd
		case "d":
			metas := m.SelectedMetas()
			if len(metas) == 0 {
				return m, nil
			}
			return m, func() tea.Msg { return DeleteRequestMsg{Metas: metas} }
		case "x":
			if len(m.entries) == 0 {
				return m, nil
			}
			return m, func() tea.Msg { return ClearRequestMsg{} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.loading {
		return "\n  Loading cache..."
	}
	if len(m.entries) == 0 {
		return "\n  No cached logs.\n\n  Logs are cached in memory when a job log is opened."
	}

	header := fmt.Sprintf("  %d logs | Total: %s | Sort: %s | space: select  s: sort  d: delete  x: clear all",
		len(m.entries),
		formatSize(m.totalSize),
		m.sortMode.String(),
	)
	if n := len(m.selected); n > 0 {
		header += fmt.Sprintf(" | %d selected", n)
	}
	return ui.StyleMuted.Render(header) + "\n" + m.list.View()
}

// SelectedEntry returns the entry under the cursor, or nil.
func (m Model) SelectedEntry() *cache.CacheEntry {
	if item, ok := m.list.SelectedItem().(cacheItem); ok {
		return &item.entry
	}
	return nil
}

// SelectedMetas returns the marked entries, or the one under the cursor when
// nothing is marked.
func (m Model) SelectedMetas() []cache.CacheMeta {
	var metas []cache.CacheMeta
	for _, e := range m.entries {
		if m.selected[e.Key()] {
			metas = append(metas, e.CacheMeta)
		}
	}
	if len(metas) == 0 {
		if e := m.SelectedEntry(); e != nil {
			metas = append(metas, e.CacheMeta)
		}
	}
	return metas
}

func (m Model) SelectionCount() int {
	return len(m.selected)
}

func (m *Model) ClearSelection() {
	for k := range m.selected {
		delete(m.selected, k)
	}
}

// IsFiltering returns true when the user is actively typing a filter.
func (m Model) IsFiltering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *Model) sortEntries() {
	switch m.sortMode {
	case SortByAccessed:
		sort.SliceStable(m.entries, func(i, j int) bool {
			return m.entries[i].LastAccessed.After(m.entries[j].LastAccessed)
		})
	case SortByDate:
		sort.SliceStable(m.entries, func(i, j int) bool {
			return m.entries[i].StoredAt.After(m.entries[j].StoredAt)
		})
	case SortBySize:
		sort.SliceStable(m.entries, func(i, j int) bool {
			return m.entries[i].Size > m.entries[j].Size
		})
	}
}

func (m Model) buildItems() []list.Item {
	now := m.clock.Now()
	items := make([]list.Item, len(m.entries))
	for i, e := range m.entries {
		items[i] = cacheItem{entry: e, selected: m.selected[e.Key()], now: now}
	}
	return items
}

// formatSize formats a byte count into a human-readable string (KB, MB, GB).
func formatSize(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		if m := int(d.Minutes()); m != 1 {
			return fmt.Sprintf("%d minutes ago", m)
		}
		return "1 minute ago"
	case d < 24*time.Hour:
		if h := int(d.Hours()); h != 1 {
			return fmt.Sprintf("%d hours ago", h)
		}
		return "1 hour ago"
	default:
		if days := int(d.Hours() / 24); days != 1 {
			return fmt.Sprintf("%d days ago", days)
		}
		return "1 day ago"
	}
}

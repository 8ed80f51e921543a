package pipelines

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/ui"
)

type pipelineItem struct {
	p      model.Pipeline
	latest *model.Build
}

func (p pipelineItem) Title() string {
	chip := ui.StyleMuted.Render("-")
	if p.latest != nil {
		chip = ui.StatusIcon(p.latest.Status())
	}

	var tags []string
	if p.p.Archived() {
		tags = append(tags, ui.StyleMuted.Render("[archived]"))
	}
	if p.p.RunningBuildsCount > 0 {
		tags = append(tags, ui.StyleInfo.Render(fmt.Sprintf("%d running", p.p.RunningBuildsCount)))
	}
	if p.p.ScheduledBuildsCount > 0 {
		tags = append(tags, ui.StyleMuted.Render(fmt.Sprintf("%d scheduled", p.p.ScheduledBuildsCount)))
	}
	if p.latest != nil {
		tags = append(tags, ui.StyleMuted.Render(fmt.Sprintf("#%d %s", p.latest.Number, p.latest.Branch)))
	}

	title := fmt.Sprintf("%s %s  %s", chip, p.p.Name, ui.StyleMuted.Render(p.p.Slug))
	if len(tags) > 0 {
		title += "  " + strings.Join(tags, "  ")
	}
	return title
}

func (p pipelineItem) Description() string { return "" }

func (p pipelineItem) FilterValue() string {
	return p.p.Name + " " + p.p.Slug + " " + p.p.Repository
}

type Model struct {
	list      list.Model
	pipelines []model.Pipeline
	latest    map[string]model.Build
	width     int
	height    int
	loading   bool
	err       error
}

func New() Model {
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(1)
	delegate.SetSpacing(0)
	delegate.ShowDescription = false

	l := list.New(nil, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("pipeline", "pipelines")
	l.KeyMap.Filter = key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter"))
	l.DisableQuitKeybindings()

	return Model{list: l, latest: make(map[string]model.Build), loading: true}
}

func (m Model) SelectedPipeline() *model.Pipeline {
	if item, ok := m.list.SelectedItem().(pipelineItem); ok {
		return &item.p
	}
	return nil
}

// Pipelines returns the loaded pipelines in display order.
func (m Model) Pipelines() []model.Pipeline {
	return m.pipelines
}

func (m Model) Init() tea.Cmd { return nil }

func (m *Model) rebuildItems() tea.Cmd {
	items := make([]list.Item, len(m.pipelines))
	for i, p := range m.pipelines {
		item := pipelineItem{p: p}
		if b, ok := m.latest[p.Slug]; ok {
			item.latest = &b
		}
		items[i] = item
	}
	return m.list.SetItems(items)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.PipelinesLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.pipelines = msg.Pipelines
		sort.SliceStable(m.pipelines, func(i, j int) bool {
			return strings.ToLower(m.pipelines[i].Name) < strings.ToLower(m.pipelines[j].Name)
		})
		return m, m.rebuildItems()

	case ui.PipelineStatsMsg:
		for slug, b := range msg.Latest {
			m.latest[slug] = b
		}
		return m, m.rebuildItems()

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
		return "\n  Loading pipelines..."
	}
	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v", m.err)
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
		ui.Keys.Trigger,
		ui.Keys.EditConfig,
	}
}

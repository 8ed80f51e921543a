package agentsview

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

type agentItem struct {
	agent model.Agent
}

func (a agentItem) Title() string {
	state := ui.StyleFailure.Render("●")
	if a.agent.Connected() {
		state = ui.StyleSuccess.Render("●")
	}

	busy := ""
	if a.agent.Busy() {
		busy = ui.StyleInfo.Render(" [busy]")
	}

	return fmt.Sprintf("%s %s%s  %s", state, a.agent.Name, busy,
		ui.StyleMuted.Render("queue="+a.agent.Queue()))
}

func (a agentItem) Description() string {
	parts := []string{a.agent.ConnectionState}
	if a.agent.Hostname != "" {
		parts = append(parts, a.agent.Hostname)
	}
	if a.agent.Version != "" {
		parts = append(parts, "v"+a.agent.Version)
	}
	if j := a.agent.Job; j != nil {
		parts = append(parts, "running "+j.DisplayName())
	}
	return strings.Join(parts, " | ")
}

func (a agentItem) FilterValue() string {
	parts := append([]string{a.agent.Name, a.agent.Hostname}, a.agent.MetaData...)
	return strings.Join(parts, " ")
}

// Model lists the organization's agents.
type Model struct {
	list    list.Model
	agents  []model.Agent
	width   int
	height  int
	loading bool
	err     error
}

func New() Model {
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

	return Model{list: l, loading: true}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.AgentsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.agents = msg.Agents
		// Connected agents first, then by queue and name.
		sort.SliceStable(m.agents, func(i, j int) bool {
			a, b := m.agents[i], m.agents[j]
			if a.Connected() != b.Connected() {
				return a.Connected()
			}
			if a.Queue() != b.Queue() {
				return a.Queue() < b.Queue()
			}
			return a.Name < b.Name
		})
		items := make([]list.Item, len(m.agents))
		for i, a := range m.agents {
			items[i] = agentItem{agent: a}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Reserve one line for the header.
		m.list.SetSize(msg.Width, msg.Height-1)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.loading {
		return "\n  Loading agents..."
	}
	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v", m.err)
	}
	if len(m.agents) == 0 {
		return "\n  No agents found.\n\n  The token needs the read_agents scope to list agents."
	}

	connected, busy := 0, 0
	queues := make(map[string]bool)
	for _, a := range m.agents {
		if a.Connected() {
			connected++
		}
		if a.Busy() {
			busy++
		}
		queues[a.Queue()] = true
	}
	header := fmt.Sprintf("  %d agents | %d connected | %d busy | %d queues | r: refresh  f: filter",
		len(m.agents), connected, busy, len(queues))

	return ui.StyleMuted.Render(header) + "\n" + m.list.View()
}

// SelectedAgent returns the agent under the cursor, or nil.
func (m Model) SelectedAgent() *model.Agent {
	if item, ok := m.list.SelectedItem().(agentItem); ok {
		return &item.agent
	}
	return nil
}

// IsFiltering returns true when the filter input is active.
func (m Model) IsFiltering() bool {
	return m.list.FilterState() == list.Filtering
}

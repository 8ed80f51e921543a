package dashboard

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/timefmt"
	"github.com/altinukshini/bk-tui/internal/ui"
)

func TestWindowSwitchRequestsRange(t *testing.T) {
	m := New(timefmt.Fixed(base))

	if m.Window() != timefmt.PresetLast7Days {
		t.Fatalf("default window = %q", m.Window())
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}})
	if cmd == nil {
		t.Fatal("expected WindowChangedMsg")
	}
	msg := cmd().(WindowChangedMsg)
	if msg.Preset != timefmt.PresetLast30Days {
		t.Errorf("Preset = %q", msg.Preset)
	}
	if want := base.Add(-30 * 24 * time.Hour); !msg.Range.Start.Equal(want) {
		t.Errorf("Range.Start = %v, want %v", msg.Range.Start, want)
	}

	// Already at the last window.
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}}); cmd != nil {
		t.Error("no message expected past the last window")
	}
}

func TestDashboardRendersMetrics(t *testing.T) {
	m := New(timefmt.Fixed(base))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 60})

	if !strings.Contains(m.View(), "Loading metrics...") {
		t.Errorf("expected loading state:\n%s", m.View())
	}

	m, _ = m.Update(ui.DashboardDataMsg{Builds: []model.Build{
		build("passed", "main", "Ada", time.Second, time.Minute, job("test", "passed", 30)),
		build("failed", "main", "Ada", time.Second, time.Minute, job("test", "failed", 30)),
	}})

	view := m.View()
	for _, want := range []string{"Overview (7d)", "Total Builds: 2", "50.0%", "Top Failing Jobs", "Top Branches", "main", "1m"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestDashboardEmptyAndError(t *testing.T) {
	m := New(timefmt.Fixed(base))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})

	m, _ = m.Update(ui.DashboardDataMsg{})
	if !strings.Contains(m.View(), "No builds created 7d") {
		t.Errorf("expected empty state:\n%s", m.View())
	}

	m, _ = m.Update(ui.DashboardDataMsg{Err: errors.New("forbidden")})
	if !strings.Contains(m.View(), "Error: forbidden") {
		t.Errorf("expected error:\n%s", m.View())
	}

	m.SetPipeline("web")
	if !strings.Contains(m.View(), "Loading metrics...") {
		t.Error("switching pipeline should reset to loading")
	}
}

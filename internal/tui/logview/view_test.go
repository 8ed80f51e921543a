package logview

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/bk-tui/internal/logs"
)

func sized() Model {
	m := New()
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sample() []logs.Line {
	return logs.Process([]string{
		"$ make test",
		"compiling",
		"Warning: deprecated flag",
		"Error: boom",
		"Successfully built",
	})
}

func TestRendersClassifiedLines(t *testing.T) {
	m := sized()
	m.SetContent("j1", "test", sample())

	view := m.View()
	for _, want := range []string{"test", "make test", "compiling", "deprecated flag", "Error: boom", "Successfully built"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestPlaceholderBeforeContent(t *testing.T) {
	m := sized()
	if !strings.Contains(m.View(), "Select a job") {
		t.Errorf("View() = %q", m.View())
	}
	m.SetLoading()
	if !strings.Contains(m.View(), "Loading logs") {
		t.Errorf("View() = %q", m.View())
	}
	m.SetContent("j1", "empty", nil)
	if !strings.Contains(m.View(), "No output") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestSearchFindsMatches(t *testing.T) {
	m := sized()
	m.SetContent("j1", "test", sample())

	m, _ = m.Update(key("/"))
	if !m.IsSearching() {
		t.Fatal("expected search mode after /")
	}
	for _, r := range "boom" {
		m, _ = m.Update(key(string(r)))
	}
	m, _ = m.Update(key("enter"))

	if m.IsSearching() {
		t.Error("enter should leave search mode")
	}
	if m.MatchCount() != 1 {
		t.Fatalf("MatchCount() = %d, want 1", m.MatchCount())
	}
	if !strings.Contains(m.View(), "[1/1 matches]") {
		t.Errorf("header missing match counter:\n%s", m.View())
	}
}

func TestRegexSearch(t *testing.T) {
	m := sized()
	m.SetContent("j1", "test", sample())

	m, _ = m.Update(key("/"))
	for _, r := range "/^(compiling|Error)" {
		m, _ = m.Update(key(string(r)))
	}
	m, _ = m.Update(key("enter"))

	if m.MatchCount() != 2 {
		t.Errorf("MatchCount() = %d, want 2", m.MatchCount())
	}
}

func TestTypeFilterCycles(t *testing.T) {
	m := sized()
	m.SetContent("j1", "test", sample())

	m, _ = m.Update(key("e"))
	if m.TypeFilter() != logs.TypeError {
		t.Fatalf("TypeFilter() = %q, want error", m.TypeFilter())
	}
	view := m.View()
	if !strings.Contains(view, "[error only]") || !strings.Contains(view, "Error: boom") {
		t.Errorf("unexpected view:\n%s", view)
	}
	if strings.Contains(view, "compiling") {
		t.Error("output lines should be hidden by the error filter")
	}

	for range typeFilters[1:] {
		m, _ = m.Update(key("e"))
	}
	if m.TypeFilter() != "" {
		t.Errorf("filter should wrap back to all, got %q", m.TypeFilter())
	}
}

func TestUpdateContentKeepsSearch(t *testing.T) {
	m := sized()
	m.SetContent("j1", "test", sample())
	m, _ = m.Update(key("/"))
	for _, r := range "error" {
		m, _ = m.Update(key(string(r)))
	}
	m, _ = m.Update(key("enter"))

	more := append(sample(), logs.Process([]string{"error: again"})...)
	m.UpdateContent(more)
	if m.MatchCount() != 2 {
		t.Errorf("MatchCount() after update = %d, want 2", m.MatchCount())
	}
}

func TestTailingTag(t *testing.T) {
	m := sized()
	m.SetContent("j1", "test", sample())
	m.SetTailing(true)
	if !strings.Contains(m.View(), "[LIVE]") {
		t.Error("expected [LIVE] while tailing")
	}
}

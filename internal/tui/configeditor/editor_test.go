package configeditor

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/bk-tui/internal/model"
)

const steps = "steps:\n  - label: test\n    command: make test\n  - wait\n"

func pipeline(conf string) model.Pipeline {
	return model.Pipeline{Name: "Web", Slug: "web", Configuration: conf}
}

func TestEditorSummarizesSteps(t *testing.T) {
	m := New(pipeline(steps))
	m.SetSize(100, 30)
	view := m.View()
	if !strings.Contains(view, "2 steps (1 command, 1 wait)") {
		t.Errorf("expected step summary:\n%s", view)
	}
	if m.Dirty() {
		t.Error("fresh editor should not be dirty")
	}
}

func TestEditorSaveRequiresValidYAML(t *testing.T) {
	m := New(pipeline(steps))
	m.SetSize(100, 30)
	m.area.SetValue("env:\n  FOO: bar\n")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Fatal("invalid pipeline must not be saved")
	}
	if !m.IsActive() {
		t.Fatal("editor should stay open")
	}
	if !strings.Contains(m.View(), "no steps") {
		t.Errorf("expected validation error:\n%s", m.View())
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.Dirty() {
		t.Error("ctrl+r should revert")
	}
}

func TestEditorSave(t *testing.T) {
	m := New(pipeline(steps))
	m.SetSize(100, 30)
	edited := steps + "  - label: deploy\n    command: make deploy\n"
	m.area.SetValue(edited)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("expected save")
	}
	res := cmd().(ResultMsg)
	if !res.Saved || res.Slug != "web" {
		t.Errorf("result = %+v", res)
	}
	if res.Configuration != m.Value() {
		t.Error("saved configuration should be the buffer contents")
	}
	if m.IsActive() {
		t.Error("editor should close after save")
	}
}

func TestEditorUnchangedSaveCloses(t *testing.T) {
	m := New(pipeline(steps))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if res := cmd().(ResultMsg); res.Saved {
		t.Error("unchanged buffer should not be saved")
	}
}

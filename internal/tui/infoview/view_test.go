package infoview

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/timefmt"
	"github.com/altinukshini/bk-tui/internal/ui"
)

var now = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

func ts(t time.Time) *time.Time { return &t }

func TestBuildInfo(t *testing.T) {
	m := New(timefmt.Fixed(now))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})

	exit := 1
	m.SetBuild(&model.Build{Number: 5, Branch: "main", State: "running", Message: "Ship it"})
	m, _ = m.Update(ui.BuildLoadedMsg{Number: 5, Build: &model.Build{
		Number:     5,
		Branch:     "main",
		State:      "failed",
		Message:    "Ship it",
		Source:     "webhook",
		CreatedAt:  ts(now.Add(-2 * time.Hour)),
		StartedAt:  ts(now.Add(-2 * time.Hour)),
		FinishedAt: ts(now.Add(-2*time.Hour + 90*time.Second)),
		MetaData:   map[string]string{"release": "v1"},
		Jobs: []model.Job{
			{Type: model.JobTypeScript, Label: "unit", State: "passed"},
			{Type: model.JobTypeWaiter, State: "waiting"},
			{Type: model.JobTypeScript, Label: "e2e", State: "failed", ExitStatus: &exit},
		},
	}})

	view := m.View()
	for _, want := range []string{
		"Build #5 Info", "Ship it", "Failed", "Created today at 10:00 - triggered from webhook",
		"release", "v1", "2 total", "1 passed", "1 failed", "unit", "e2e", "1m",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestJobInfoUTC(t *testing.T) {
	local := time.FixedZone("CEST", 2*60*60)
	m := New(timefmt.Fixed(now.In(local)))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	m.SetJob(&model.Job{
		Type:       model.JobTypeScript,
		Label:      "lint",
		State:      "passed",
		Command:    "make lint",
		StartedAt:  ts(now.Add(-time.Minute)),
		FinishedAt: ts(now),
		Agent:      &model.Agent{Name: "ci-1"},
	})
	if view := m.View(); !strings.Contains(view, "2024-05-15 13:59:00") {
		t.Errorf("expected local start time:\n%s", view)
	}

	m.SetUTC(true)
	view := m.View()
	for _, want := range []string{"Job Info", "lint", "make lint", "ci-1", "2024-05-15 11:59:00 UTC"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

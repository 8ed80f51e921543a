package details

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/status"
	"github.com/altinukshini/bk-tui/internal/timefmt"
	"github.com/altinukshini/bk-tui/internal/ui"
)

func intp(i int) *int { return &i }

func TestGroupJobs(t *testing.T) {
	jobs := []model.Job{
		{ID: "1", Type: model.JobTypeScript, Label: "lint", State: "passed"},
		{ID: "old", Type: model.JobTypeScript, Label: "lint", State: "failed", Retried: true},
		{ID: "2", Type: model.JobTypeWaiter, State: "waiting"},
		{ID: "3", Type: model.JobTypeScript, Label: "rspec", StepKey: "rspec", State: "passed", ParallelGroupIndex: intp(0), ParallelGroupTotal: intp(2)},
		{ID: "4", Type: model.JobTypeScript, Label: "rspec", StepKey: "rspec", State: "failed", ParallelGroupIndex: intp(1), ParallelGroupTotal: intp(2)},
		{ID: "5", Type: model.JobTypeManual, Label: "Deploy?", State: "blocked"},
	}

	groups := groupJobs(jobs)
	if len(groups) != 4 {
		t.Fatalf("got %d groups, want 4: %+v", len(groups), groups)
	}
	if groups[0].Label != "lint" || len(groups[0].Jobs) != 1 || groups[0].Jobs[0].ID != "1" {
		t.Errorf("group 0 = %+v", groups[0])
	}
	if !groups[1].Separator {
		t.Errorf("group 1 should be a wait separator: %+v", groups[1])
	}
	if !groups[2].Parallel || len(groups[2].Jobs) != 2 {
		t.Errorf("group 2 should hold both parallel jobs: %+v", groups[2])
	}
	if got := aggregateStatus(groups[2].Jobs); got != status.Failed {
		t.Errorf("aggregateStatus = %s, want FAILED", got)
	}
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name   string
		states []string
		want   status.Status
	}{
		{"all passed", []string{"passed", "passed"}, status.Passed},
		{"running wins", []string{"failed", "running"}, status.Running},
		{"failure over cancel", []string{"canceled", "failed"}, status.Failed},
		{"canceled", []string{"passed", "canceled"}, status.Canceled},
		{"pending", []string{"passed", "scheduled"}, status.Scheduled},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var jobs []model.Job
			for _, s := range tc.states {
				jobs = append(jobs, model.Job{State: s})
			}
			if got := aggregateStatus(jobs); got != tc.want {
				t.Errorf("aggregateStatus(%v) = %s, want %s", tc.states, got, tc.want)
			}
		})
	}
}

func TestCursorSkipsSeparators(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	m := New(timefmt.Fixed(now))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})

	build := &model.Build{Number: 9, Branch: "main", State: "running", Jobs: []model.Job{
		{ID: "a", Type: model.JobTypeScript, Label: "build", State: "passed"},
		{ID: "w", Type: model.JobTypeWaiter, State: "waiting"},
		{ID: "b", Type: model.JobTypeScript, Label: "test", State: "running"},
	}}
	m.SetBuild(build)
	if !strings.Contains(m.View(), "Loading jobs") {
		t.Fatalf("expected loading view, got %q", m.View())
	}
	m, _ = m.Update(ui.BuildLoadedMsg{Pipeline: "web", Number: 9, Build: build})

	if job := m.SelectedJob(); job == nil || job.ID != "a" {
		t.Fatalf("SelectedJob() = %+v, want a", job)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	if job := m.SelectedJob(); job == nil || job.ID != "b" {
		t.Fatalf("SelectedJob() after j = %+v, want b", job)
	}

	view := m.View()
	for _, want := range []string{"#9", "build", "test", "wait"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestBuildLoadedForOtherBuildIgnored(t *testing.T) {
	m := New(timefmt.SystemClock)
	m.SetBuild(&model.Build{Number: 1})
	m, _ = m.Update(ui.BuildLoadedMsg{Number: 2, Build: &model.Build{Number: 2}})

	if m.Build().Number != 1 {
		t.Errorf("Build() = %d, want 1", m.Build().Number)
	}
	if !strings.Contains(m.View(), "Loading jobs") {
		t.Error("still waiting for build 1")
	}
}

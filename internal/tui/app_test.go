package tui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/altinukshini/bk-tui/internal/api"
	"github.com/altinukshini/bk-tui/internal/cache"
	"github.com/altinukshini/bk-tui/internal/config"
	"github.com/altinukshini/bk-tui/internal/logs"
	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/timefmt"
	"github.com/altinukshini/bk-tui/internal/tui/filteroverlay"
	"github.com/altinukshini/bk-tui/internal/ui"
)

var testNow = time.Date(2024, 5, 15, 14, 0, 0, 0, time.UTC)

// newTestApp returns an app on pipeline "web" whose client talks to a
// server that answers every request with an empty list. Requests are
// recorded.
func newTestApp(t *testing.T) (App, *[]*http.Request) {
	t.Helper()
	var mu sync.Mutex
	var requests []*http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	t.Cleanup(srv.Close)

	client, err := api.NewClient(srv.URL+"/v2", "acme", api.WithRateLimit(rate.Inf, 1))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	cfg := config.Default()
	cfg.Org = "acme"
	cfg.Pipeline = "web"
	app := NewApp(cfg, client, cache.NewLogCache(8), timefmt.Fixed(testNow))

	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return *m.(*App), &requests
}

func update(t *testing.T, app App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := app.Update(msg)
	return *m.(*App), cmd
}

// runCmd executes cmd and flattens batches into their messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func testBuilds() []model.Build {
	created := testNow.Add(-time.Hour)
	return []model.Build{
		{Number: 101, State: "passed", Branch: "main", Message: "Build CI", CreatedAt: &created, Creator: &model.Creator{Name: "Jane"}},
		{Number: 102, State: "failed", Branch: "dev", Message: "Test Suite", CreatedAt: &created, Creator: &model.Creator{Name: "Sam"}},
	}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConfiguredPipelineOpensBuilds(t *testing.T) {
	app, _ := newTestApp(t)
	if app.currentView != ViewBuilds {
		t.Fatalf("expected ViewBuilds, got %v", app.currentView)
	}
	if app.focusedPane != PaneLeft {
		t.Fatalf("expected PaneLeft, got %v", app.focusedPane)
	}
}

func TestBuildsLoadedRendersRows(t *testing.T) {
	app, _ := newTestApp(t)
	app, _ = update(t, app, ui.BuildsLoadedMsg{Pipeline: "web", Builds: testBuilds()})

	view := app.View()
	if !strings.Contains(view, "#101") || !strings.Contains(view, "Build CI") {
		t.Errorf("builds view should contain loaded builds, got:\n%s", view)
	}
	if !strings.Contains(app.status, "2 builds") {
		t.Errorf("status = %q, want build count", app.status)
	}
}

func TestBuildsForOtherPipelineIgnored(t *testing.T) {
	app, _ := newTestApp(t)
	app, _ = update(t, app, ui.BuildsLoadedMsg{Pipeline: "docs", Builds: testBuilds()})
	if n := len(app.buildsView.Builds()); n != 0 {
		t.Errorf("stale builds reached the view: %d", n)
	}
}

func TestFilterKeyReachesBuildsView(t *testing.T) {
	app, _ := newTestApp(t)
	app, _ = update(t, app, ui.BuildsLoadedMsg{Pipeline: "web", Builds: testBuilds()})

	app, _ = update(t, app, keyPress("f"))
	if !app.buildsView.IsFiltering() {
		t.Fatal("expected builds view to be filtering after pressing f")
	}
	if !app.isListFiltering() {
		t.Error("expected isListFiltering() to return true")
	}

	// While filtering, "q" is filter text, not quit.
	app, _ = update(t, app, keyPress("q"))
	if !app.buildsView.IsFiltering() {
		t.Error("filter should stay open")
	}
}

func TestJobLogRendersClassifiedLines(t *testing.T) {
	app, _ := newTestApp(t)
	app.openingJobID = "job-1"
	app.logFullScreen = true

	lines := logs.ProcessContent("$ make test\nError: boom\nok\n")
	app, _ = update(t, app, ui.JobLogLoadedMsg{
		Meta:  cache.CacheMeta{Pipeline: "web", BuildNumber: 101, JobID: "job-1", JobName: "test"},
		Lines: lines,
	})

	got := app.logView.Lines()
	if len(got) != 3 {
		t.Fatalf("got %d lines, want 3", len(got))
	}
	want := []logs.Type{logs.TypeCommand, logs.TypeError, logs.TypeOutput}
	for i, w := range want {
		if got[i].Type != w {
			t.Errorf("line %d type = %q, want %q", i, got[i].Type, w)
		}
	}
	if view := app.View(); !strings.Contains(view, "make test") || !strings.Contains(view, "boom") {
		t.Errorf("log view missing content:\n%s", view)
	}
	if app.openingJobID != "" {
		t.Error("opening marker should be cleared")
	}
}

func TestJobLogForOtherJobIgnored(t *testing.T) {
	app, _ := newTestApp(t)
	app.openingJobID = "job-1"
	app, _ = update(t, app, ui.JobLogLoadedMsg{
		Meta:  cache.CacheMeta{Pipeline: "web", BuildNumber: 101, JobID: "job-2"},
		Lines: logs.ProcessContent("hello\n"),
	})
	if len(app.logView.Lines()) != 0 {
		t.Error("log of another job should not be shown")
	}
}

func TestTailStopsWhenJobFinishes(t *testing.T) {
	app, _ := newTestApp(t)
	meta := cache.CacheMeta{Pipeline: "web", BuildNumber: 101, JobID: "job-1", JobName: "test"}
	app.tailing = &meta
	app.logFullScreen = true
	app.logView.SetTailing(true)

	app, cmd := update(t, app, ui.JobLogLoadedMsg{Meta: meta, Lines: logs.ProcessContent("a\n"), Running: true})
	if app.tailing == nil || cmd == nil {
		t.Fatal("running job should keep tailing")
	}

	app, _ = update(t, app, ui.JobLogLoadedMsg{Meta: meta, Lines: logs.ProcessContent("a\nb\n"), Running: false})
	if app.tailing != nil || app.logView.IsTailing() {
		t.Error("finished job should stop tailing")
	}
	if n := len(app.logView.Lines()); n != 2 {
		t.Errorf("got %d lines after final refresh, want 2", n)
	}
}

func TestFilterOverlayResultFetchesDateRange(t *testing.T) {
	app, requests := newTestApp(t)

	app, cmd := update(t, app, filteroverlay.ResultMsg{
		Applied: true,
		Filter:  filteroverlay.FilterResult{DatePreset: timefmt.PresetToday, Branch: "main"},
	})
	if app.buildsFilter.Branch != "main" {
		t.Fatalf("filter not stored: %+v", app.buildsFilter)
	}

	var loaded *ui.BuildsLoadedMsg
	for _, msg := range runCmd(cmd) {
		if m, ok := msg.(ui.BuildsLoadedMsg); ok {
			loaded = &m
		}
	}
	if loaded == nil || loaded.Err != nil || loaded.Pipeline != "web" {
		t.Fatalf("expected builds loaded for web, got %+v", loaded)
	}

	if len(*requests) == 0 {
		t.Fatal("no request sent")
	}
	q := (*requests)[len(*requests)-1].URL.Query()
	r := timefmt.RangeFromPreset(timefmt.PresetToday, testNow)
	if got, want := q.Get("created_from"), r.Start.UTC().Format(time.RFC3339); got != want {
		t.Errorf("created_from = %q, want %q", got, want)
	}
	if got, want := q.Get("created_to"), r.End.UTC().Format(time.RFC3339); got != want {
		t.Errorf("created_to = %q, want %q", got, want)
	}
	if got := q.Get("branch"); got != "main" {
		t.Errorf("branch = %q, want main", got)
	}
}

func TestToggleUTC(t *testing.T) {
	app, _ := newTestApp(t)
	app, _ = update(t, app, keyPress("u"))
	if !app.utc {
		t.Fatal("u should switch to UTC")
	}
	if app.status != "Dates in UTC" {
		t.Errorf("status = %q", app.status)
	}
	app, _ = update(t, app, keyPress("u"))
	if app.utc {
		t.Error("second u should switch back to local time")
	}
}

func TestPollTickFromOldLoopIgnored(t *testing.T) {
	app, _ := newTestApp(t)
	app.pollSeq = 2
	if _, cmd := update(t, app, ui.PollTickMsg{Seq: 1}); cmd != nil {
		t.Error("stale tick should not schedule work")
	}
}

func TestCancelAsksForConfirmation(t *testing.T) {
	app, _ := newTestApp(t)
	builds := testBuilds()
	builds[0].State = "running"
	app, _ = update(t, app, ui.BuildsLoadedMsg{Pipeline: "web", Builds: builds})

	app, _ = update(t, app, keyPress("C"))
	if !app.confirmDialog.IsActive() {
		t.Fatal("C on a running build should open the confirm dialog")
	}
	if app.confirmDialog.Action != "cancel-build" {
		t.Errorf("action = %q, want cancel-build", app.confirmDialog.Action)
	}
}

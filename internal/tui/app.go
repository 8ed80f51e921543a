package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/phuslu/log"

	"github.com/altinukshini/bk-tui/internal/api"
	"github.com/altinukshini/bk-tui/internal/cache"
	"github.com/altinukshini/bk-tui/internal/config"
	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/search"
	"github.com/altinukshini/bk-tui/internal/status"
	"github.com/altinukshini/bk-tui/internal/timefmt"
	"github.com/altinukshini/bk-tui/internal/tui/agentsview"
	"github.com/altinukshini/bk-tui/internal/tui/builds"
	"github.com/altinukshini/bk-tui/internal/tui/cacheview"
	"github.com/altinukshini/bk-tui/internal/tui/configeditor"
	"github.com/altinukshini/bk-tui/internal/tui/confirm"
	"github.com/altinukshini/bk-tui/internal/tui/dashboard"
	"github.com/altinukshini/bk-tui/internal/tui/details"
	"github.com/altinukshini/bk-tui/internal/tui/filteroverlay"
	"github.com/altinukshini/bk-tui/internal/tui/infoview"
	"github.com/altinukshini/bk-tui/internal/tui/logview"
	"github.com/altinukshini/bk-tui/internal/tui/pipelines"
	"github.com/altinukshini/bk-tui/internal/tui/searchview"
	"github.com/altinukshini/bk-tui/internal/tui/trigger"
	"github.com/altinukshini/bk-tui/internal/ui"
)

type View int

const (
	ViewPipelines View = iota
	ViewBuilds
	ViewMetrics
	ViewCache
	ViewAgents
)

type Pane int

const (
	PaneLeft Pane = iota
	PaneMiddle
)

type App struct {
	cfg      config.Config
	client   *api.Client
	logCache *cache.LogCache
	search   *search.Engine
	clock    timefmt.Clock

	// Views
	pipelinesView pipelines.Model
	buildsView    builds.Model
	detailsView   details.Model
	logView       logview.Model
	infoView      infoview.Model
	searchView    searchview.Model
	dashboardView dashboard.Model
	cacheView     cacheview.Model
	agentsView    agentsview.Model

	// Dialogs
	confirmDialog confirm.Model
	filterOverlay filteroverlay.Model
	triggerForm   trigger.Model
	configEditor  configeditor.Model

	// Server-side filter for the Builds tab
	buildsFilter filteroverlay.FilterResult

	// State
	pipeline    string
	currentView View
	focusedPane Pane
	width       int
	height      int
	status      string
	utc         bool

	// Pagination
	buildsPage    int
	buildsHasMore bool
	buildsLoading bool

	pollSeq int

	// Log loading and live tailing
	openingJobID string
	tailing      *cache.CacheMeta

	// Build whose logs the cross-job search ran over
	searchBuildNumber int

	showHelp       bool
	logFullScreen  bool
	infoFullScreen bool
	cameFromSearch bool
}

// NewApp builds the root model. A configured pipeline opens straight on its
// builds.
func NewApp(cfg config.Config, client *api.Client, logCache *cache.LogCache, clock timefmt.Clock) App {
	a := App{
		cfg:           cfg,
		client:        client,
		logCache:      logCache,
		search:        search.New(),
		clock:         clock,
		pipelinesView: pipelines.New(),
		buildsView:    builds.New(clock),
		detailsView:   details.New(clock),
		logView:       logview.New(),
		infoView:      infoview.New(clock),
		searchView:    searchview.New(),
		dashboardView: dashboard.New(clock),
		cacheView:     cacheview.New(clock),
		agentsView:    agentsview.New(),
		currentView:   ViewPipelines,
		focusedPane:   PaneLeft,
		buildsPage:    1,
		status:        "Loading pipelines...",
	}
	a.setUTC(cfg.UTC)
	if cfg.Pipeline != "" {
		a.pipeline = cfg.Pipeline
		a.currentView = ViewBuilds
		a.status = "Loading builds..."
	}
	return a
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.fetchPipelines(), a.schedulePoll()}
	if a.pipeline != "" {
		cmds = append(cmds, a.fetchBuilds())
	}
	return tea.Batch(cmds...)
}

func (a *App) setUTC(utc bool) {
	a.utc = utc
	a.buildsView.SetUTC(utc)
	a.infoView.SetUTC(utc)
}

// selectPipeline switches the Builds tab to slug and restarts polling.
func (a *App) selectPipeline(slug string) tea.Cmd {
	a.pipeline = slug
	a.buildsFilter = filteroverlay.FilterResult{}
	a.resetBuilds()
	a.detailsView = details.New(a.clock)
	a.currentView = ViewBuilds
	a.focusedPane = PaneLeft
	a.pollSeq++
	a.propagateSize()
	a.status = fmt.Sprintf("Loading builds for %s...", slug)
	return tea.Batch(a.fetchBuilds(), a.schedulePoll())
}

func (a *App) resetBuilds() {
	a.buildsView = builds.New(a.clock)
	a.buildsView.SetUTC(a.utc)
	a.buildsPage = 1
	a.buildsHasMore = false
	a.buildsLoading = false
}

func (a App) currentPipeline() model.Pipeline {
	for _, p := range a.pipelinesView.Pipelines() {
		if p.Slug == a.pipeline {
			return p
		}
	}
	return model.Pipeline{Slug: a.pipeline, Name: a.pipeline}
}

// searchTarget is the build the cross-job search runs over: the one open in
// the details pane, else the highlighted row.
func (a App) searchTarget() *model.Build {
	if b := a.detailsView.Build(); b != nil {
		return b
	}
	return a.buildsView.SelectedBuild()
}

func (a *App) stopTailing() {
	a.tailing = nil
	a.logView.SetTailing(false)
}

// openJobLog shows a job's log full screen, from the processed-log cache
// when the job has finished, otherwise fetched and tailed.
func (a *App) openJobLog(build *model.Build, job model.Job) tea.Cmd {
	meta := a.jobMeta(build.Number, job)
	a.stopTailing()
	a.logFullScreen = true
	a.propagateSize()

	if !job.Running() {
		if lines, ok := a.logCache.Cached(meta); ok {
			a.openingJobID = ""
			a.logView.SetContent(meta.JobID, meta.JobName, lines)
			a.status = fmt.Sprintf("%s (cached)", meta.JobName)
			return nil
		}
	}

	a.openingJobID = meta.JobID
	a.logView.SetLoading()
	if job.Running() {
		a.tailing = &meta
		a.logView.SetTailing(true)
		a.status = fmt.Sprintf("Watching %s...", meta.JobName)
	} else {
		a.status = fmt.Sprintf("Fetching log for %s...", meta.JobName)
	}
	return a.fetchJobLog(meta, job.Running())
}

// --- Update ---

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Handle confirm dialog result (arrives AFTER dialog deactivates itself)
	if result, ok := msg.(confirm.ResultMsg); ok {
		if result.Confirmed {
			switch result.Action {
			case "rebuild":
				ref := result.Data.(confirm.BuildRef)
				a.status = fmt.Sprintf("Rebuilding #%d...", ref.Number)
				cmds = append(cmds, a.doRebuild(ref))
			case "cancel-build":
				ref := result.Data.(confirm.BuildRef)
				a.status = fmt.Sprintf("Canceling #%d...", ref.Number)
				cmds = append(cmds, a.doCancelBuild(ref))
			case "cancel-selected":
				numbers := result.Data.([]int)
				a.status = fmt.Sprintf("Canceling %d builds...", len(numbers))
				a.buildsView.ClearSelection()
				cmds = append(cmds, a.doCancelSelected(a.pipeline, numbers))
			case "retry-job":
				ref := result.Data.(confirm.JobRef)
				a.status = fmt.Sprintf("Retrying %s...", ref.JobName)
				cmds = append(cmds, a.doRetryJob(ref))
			case "delete-cached-logs":
				metas := result.Data.([]cache.CacheMeta)
				for _, m := range metas {
					a.logCache.DeleteEntry(m)
				}
				a.cacheView.ClearSelection()
				a.status = fmt.Sprintf("Removed %d cached logs", len(metas))
				cmds = append(cmds, a.listCache())
			case "clear-log-cache":
				a.logCache.DeleteAll()
				a.cacheView.ClearSelection()
				a.status = "Log cache cleared"
				cmds = append(cmds, a.listCache())
			}
		}
		return &a, tea.Batch(cmds...)
	}

	// Handle confirmation dialog input (key events while dialog is showing)
	if a.confirmDialog.IsActive() {
		var cmd tea.Cmd
		a.confirmDialog, cmd = a.confirmDialog.Update(msg)
		return &a, cmd
	}

	// Handle filter overlay result
	if result, ok := msg.(filteroverlay.ResultMsg); ok {
		if result.Applied {
			a.buildsFilter = result.Filter
			a.resetBuilds()
			a.propagateSize()
			a.status = "Loading builds..."
			cmds = append(cmds, a.fetchBuilds())
		}
		return &a, tea.Batch(cmds...)
	}

	if a.filterOverlay.IsActive() {
		var cmd tea.Cmd
		a.filterOverlay, cmd = a.filterOverlay.Update(msg)
		return &a, cmd
	}

	if result, ok := msg.(trigger.ResultMsg); ok {
		if result.Submitted {
			a.status = fmt.Sprintf("Creating build on %s...", result.Request.Branch)
			cmds = append(cmds, a.doCreateBuild(result.Pipeline, result.Request))
		}
		return &a, tea.Batch(cmds...)
	}

	if a.triggerForm.IsActive() {
		var cmd tea.Cmd
		a.triggerForm, cmd = a.triggerForm.Update(msg)
		return &a, cmd
	}

	if result, ok := msg.(configeditor.ResultMsg); ok {
		switch {
		case result.Saved:
			a.status = fmt.Sprintf("Saving steps for %s...", result.Slug)
			cmds = append(cmds, a.doSavePipeline(result.Slug, result.Configuration))
		default:
			a.status = "Edit discarded"
		}
		return &a, tea.Batch(cmds...)
	}

	if a.configEditor.IsActive() {
		var cmd tea.Cmd
		a.configEditor, cmd = a.configEditor.Update(msg)
		return &a, cmd
	}

	// The search view emits its request while still active.
	if req, ok := msg.(searchview.RequestMsg); ok {
		if b := a.searchTarget(); b != nil {
			a.searchBuildNumber = b.Number
			a.status = fmt.Sprintf("Searching logs of #%d...", b.Number)
			cmds = append(cmds, a.searchBuild(*b, req.Query))
		}
		return &a, tea.Batch(cmds...)
	}

	// Handle search input/results mode
	if a.searchView.IsActive() {
		if sd, ok := msg.(ui.SearchDoneMsg); ok && sd.Err == nil {
			a.status = fmt.Sprintf("Search: %d matches in #%d", countMatches(sd.Results), a.searchBuildNumber)
		}

		inResults := !a.searchView.IsInputMode()
		var cmd tea.Cmd
		a.searchView, cmd = a.searchView.Update(msg)
		cmds = append(cmds, cmd)

		// Results mode: jump to the selected match's log
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" && inResults {
			if match := a.searchView.SelectedMatch(); match != nil {
				meta := cache.CacheMeta{
					Pipeline:    a.pipeline,
					BuildNumber: a.searchBuildNumber,
					JobID:       match.JobID,
					JobName:     match.JobName,
				}
				if lines, ok := a.logCache.Cached(meta); ok {
					a.searchView.Deactivate()
					a.stopTailing()
					a.logView.SetContent(meta.JobID, meta.JobName, lines)
					a.logFullScreen = true
					a.cameFromSearch = true
					a.propagateSize()
					a.logView.GotoLine(match.Line)
				} else {
					a.status = fmt.Sprintf("Log for %s is no longer cached", meta.JobName)
				}
			}
		}
		return &a, tea.Batch(cmds...)
	}

	// Handle full-screen log search mode: keys go directly to log view,
	// skip app-level handlers (quit, tab switching, etc.)
	if _, isKey := msg.(tea.KeyMsg); isKey && a.logFullScreen && a.logView.IsSearching() {
		var cmd tea.Cmd
		a.logView, cmd = a.logView.Update(msg)
		return &a, cmd
	}

	// Handle list filter mode: keys go directly to the filtering list,
	// skip app-level handlers (tab switching, quit, etc.)
	if _, isKey := msg.(tea.KeyMsg); isKey && a.isListFiltering() {
		var cmd tea.Cmd
		switch a.currentView {
		case ViewPipelines:
			a.pipelinesView, cmd = a.pipelinesView.Update(msg)
		case ViewBuilds:
			a.buildsView, cmd = a.buildsView.Update(msg)
		case ViewCache:
			a.cacheView, cmd = a.cacheView.Update(msg)
		case ViewAgents:
			a.agentsView, cmd = a.agentsView.Update(msg)
		}
		return &a, cmd
	}

	// Builds data for a pipeline the user has since left is stale.
	switch m := msg.(type) {
	case ui.BuildsLoadedMsg:
		if m.Pipeline != a.pipeline {
			return &a, nil
		}
	case ui.BuildsPageMsg:
		if m.Pipeline != a.pipeline {
			return &a, nil
		}
	case ui.BuildLoadedMsg:
		if m.Pipeline != a.pipeline {
			return &a, nil
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.propagateSize()

	case tea.KeyMsg:
		// Help overlay dismisses on any key
		if a.showHelp {
			a.showHelp = false
			return &a, nil
		}
		if cmd, handled := a.handleKey(msg); handled {
			return &a, cmd
		} else if cmd != nil {
			cmds = append(cmds, cmd)
		}

	case builds.NeedNextPageMsg:
		if a.currentView == ViewBuilds && a.buildsHasMore && !a.buildsLoading {
			a.buildsLoading = true
			a.status = fmt.Sprintf("Loading page %d...", a.buildsPage+1)
			cmds = append(cmds, a.fetchBuildsPage(a.buildsPage+1))
		}

	case ui.PipelinesLoadedMsg:
		if msg.Err == nil {
			if a.currentView == ViewPipelines {
				a.status = fmt.Sprintf("%d pipelines", len(msg.Pipelines))
			}
			cmds = append(cmds, a.fetchPipelineStats(msg.Pipelines))
		} else {
			a.status = fmt.Sprintf("Error: %v", msg.Err)
		}

	case ui.BuildsLoadedMsg:
		a.buildsLoading = false
		if msg.Err == nil {
			a.buildsPage = 1
			a.buildsHasMore = msg.HasMore
			a.status = a.buildsPageStatus(len(msg.Builds))
		} else {
			a.status = fmt.Sprintf("Error: %v", msg.Err)
		}

	case ui.BuildsPageMsg:
		a.buildsLoading = false
		if msg.Err == nil {
			a.buildsPage = msg.Page
			a.buildsHasMore = msg.HasMore
			a.status = a.buildsPageStatus(len(msg.Builds))
		} else {
			a.status = fmt.Sprintf("Error loading page: %v", msg.Err)
		}

	case ui.BuildLoadedMsg:
		if msg.Err != nil {
			a.status = fmt.Sprintf("Error loading build #%d: %v", msg.Number, msg.Err)
		} else if b := a.detailsView.Build(); b != nil && b.Number == msg.Number {
			a.status = fmt.Sprintf("#%d: %d jobs", msg.Number, len(msg.Build.Jobs))
		}

	case ui.JobLogLoadedMsg:
		cmds = append(cmds, a.handleJobLog(msg))

	case ui.LogTailTickMsg:
		if a.tailing != nil && a.tailing.JobID == msg.JobID && a.logFullScreen {
			cmds = append(cmds, a.tailJobLog(*a.tailing))
		}

	case ui.PollTickMsg:
		if msg.Seq != a.pollSeq {
			return &a, nil
		}
		if a.currentView == ViewBuilds && a.buildsPage == 1 && !a.buildsLoading && !a.logFullScreen {
			cmds = append(cmds, a.fetchBuilds())
			if b := a.detailsView.Build(); b != nil && b.Running() {
				cmds = append(cmds, a.fetchBuild(b.Number))
			}
		}
		if a.infoFullScreen {
			if b := a.infoView.Build(); b != nil && b.Running() {
				cmds = append(cmds, a.fetchBuild(b.Number))
			}
		}
		cmds = append(cmds, a.schedulePoll())

	case ui.ActionResultMsg:
		if msg.Err != nil {
			a.status = fmt.Sprintf("%s: %v", msg.Action, msg.Err)
		} else {
			a.status = fmt.Sprintf("%s: success", msg.Action)
		}
		cmds = append(cmds, a.fetchBuilds())
		if b := a.detailsView.Build(); b != nil {
			cmds = append(cmds, a.fetchBuild(b.Number))
		}

	case ui.BuildCreatedMsg:
		if msg.Err != nil {
			a.status = fmt.Sprintf("Create build: %v", msg.Err)
		} else {
			a.status = fmt.Sprintf("Build #%d created", msg.Build.Number)
			cmds = append(cmds, a.fetchBuilds())
		}

	case ui.PipelineConfigLoadedMsg:
		if msg.Err != nil {
			a.status = fmt.Sprintf("Error loading steps: %v", msg.Err)
		} else {
			a.configEditor = configeditor.New(*msg.Pipeline)
			a.configEditor.SetSize(a.width, a.height-3)
			a.status = fmt.Sprintf("Editing steps of %s", msg.Pipeline.Slug)
			cmds = append(cmds, a.configEditor.Init())
		}

	case ui.PipelineSavedMsg:
		if msg.Err != nil {
			a.status = fmt.Sprintf("Save steps: %v", msg.Err)
		} else {
			a.status = fmt.Sprintf("Steps of %s saved", msg.Slug)
			cmds = append(cmds, a.fetchPipelines())
		}

	case dashboard.WindowChangedMsg:
		a.status = fmt.Sprintf("Loading metrics (%s)...", msg.Preset)
		cmds = append(cmds, a.fetchDashboard(msg.Range))

	case ui.DashboardDataMsg:
		if msg.Err == nil {
			a.status = fmt.Sprintf("Metrics: %d builds (%s)", len(msg.Builds), a.dashboardView.Window())
		} else {
			a.status = fmt.Sprintf("Error loading metrics: %v", msg.Err)
		}

	case cacheview.DeleteRequestMsg:
		if len(msg.Metas) > 0 {
			a.confirmDialog = confirm.New(
				"Remove Cached Logs",
				fmt.Sprintf("Remove %d processed logs from the cache?", len(msg.Metas)),
				"delete-cached-logs", msg.Metas,
			)
			a.confirmDialog.SetSize(a.width, a.height)
		}
		return &a, nil

	case cacheview.ClearRequestMsg:
		a.confirmDialog = confirm.New(
			"Clear Log Cache",
			"Remove every processed log from the cache?",
			"clear-log-cache", nil,
		)
		a.confirmDialog.SetSize(a.width, a.height)
		return &a, nil

	case ui.LogCacheMsg:
		a.status = fmt.Sprintf("%d cached logs (%s)", len(msg.Entries), formatBytes(a.logCache.TotalSize()))

	case ui.AgentsLoadedMsg:
		if msg.Err == nil {
			a.status = fmt.Sprintf("%d agents", len(msg.Agents))
		} else {
			a.status = fmt.Sprintf("Error loading agents: %v", msg.Err)
		}

	case ui.StatusMsg:
		a.status = msg.Text
	}

	// Propagate to active sub-views.
	// Skip WindowSizeMsg, handled by propagateSize() with per-pane dimensions.
	if _, isResize := msg.(tea.WindowSizeMsg); !isResize {
		cmds = append(cmds, a.propagate(msg)...)
	}

	return &a, tea.Batch(cmds...)
}

// handleKey runs app-level key bindings. handled stops propagation to the
// sub-views.
func (a *App) handleKey(msg tea.KeyMsg) (cmd tea.Cmd, handled bool) {
	// Full-screen log and info views own their keys apart from quit.
	fullScreen := a.logFullScreen || a.infoFullScreen

	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit, true

	case "?":
		a.showHelp = true
		return nil, true

	case "tab", "shift+tab":
		if a.currentView == ViewBuilds && !fullScreen {
			if a.focusedPane == PaneLeft {
				a.focusedPane = PaneMiddle
			} else {
				a.focusedPane = PaneLeft
			}
			return nil, true
		}

	case "1", "2", "3", "4", "5":
		return a.switchTab(msg.String()), true

	case "u":
		a.setUTC(!a.utc)
		if a.utc {
			a.status = "Dates in UTC"
		} else {
			a.status = "Dates in local time"
		}
		return nil, true

	case "S":
		if a.currentView == ViewBuilds && !fullScreen && a.pipeline != "" {
			a.filterOverlay = filteroverlay.New(a.buildsFilter)
			a.filterOverlay.SetSize(a.width, a.height)
			return nil, true
		}

	case "/":
		if a.currentView == ViewBuilds && !fullScreen {
			if a.searchTarget() == nil {
				a.status = "Select a build to search its logs"
				return nil, true
			}
			a.searchView.Activate()
			return nil, true
		}

	case "enter":
		return a.handleEnter()

	case "right", "l":
		if a.currentView == ViewBuilds && a.focusedPane == PaneLeft && !fullScreen && a.buildsHasMore && !a.buildsLoading {
			a.buildsLoading = true
			a.status = fmt.Sprintf("Loading page %d...", a.buildsPage+1)
			return a.fetchBuildsPage(a.buildsPage + 1), true
		}
	case "left", "h":
		if a.currentView == ViewBuilds && a.focusedPane == PaneLeft && !fullScreen && a.buildsPage > 1 && !a.buildsLoading {
			a.buildsLoading = true
			a.status = fmt.Sprintf("Loading page %d...", a.buildsPage-1)
			return a.fetchBuildsPage(a.buildsPage - 1), true
		}

	case "r":
		if fullScreen {
			break
		}
		switch a.currentView {
		case ViewPipelines:
			a.status = "Refreshing pipelines..."
			return a.fetchPipelines(), true
		case ViewBuilds:
			a.status = "Refreshing builds..."
			cmds := []tea.Cmd{a.fetchBuilds()}
			if b := a.detailsView.Build(); b != nil {
				cmds = append(cmds, a.fetchBuild(b.Number))
			}
			return tea.Batch(cmds...), true
		case ViewMetrics:
			a.status = "Refreshing metrics..."
			return a.fetchDashboard(a.dashboardView.Range()), true
		case ViewCache:
			return a.listCache(), true
		case ViewAgents:
			a.status = "Refreshing agents..."
			return a.fetchAgents(), true
		}

	case "R":
		if a.currentView == ViewBuilds && !fullScreen {
			if b := a.buildsView.SelectedBuild(); b != nil {
				a.openConfirm("Rebuild",
					fmt.Sprintf("Rebuild #%d (%s)?", b.Number, b.Title()),
					"rebuild", confirm.BuildRef{Pipeline: a.pipeline, Number: b.Number})
				return nil, true
			}
		}

	case "C":
		if a.currentView == ViewBuilds && !fullScreen {
			if count := a.buildsView.SelectionCount(); count > 0 {
				a.openConfirm("Cancel Selected Builds",
					fmt.Sprintf("Cancel %d selected builds?", count),
					"cancel-selected", a.buildsView.SelectedBuilds())
				return nil, true
			}
			if b := a.buildsView.SelectedBuild(); b != nil {
				if !status.IsInProgress(b.Status()) {
					a.status = fmt.Sprintf("#%d is not running", b.Number)
					return nil, true
				}
				a.openConfirm("Cancel Build",
					fmt.Sprintf("Cancel build #%d?", b.Number),
					"cancel-build", confirm.BuildRef{Pipeline: a.pipeline, Number: b.Number})
				return nil, true
			}
		}

	case "F":
		if a.currentView == ViewBuilds && a.focusedPane == PaneMiddle && !fullScreen {
			b, j := a.detailsView.Build(), a.detailsView.SelectedJob()
			if b != nil && j != nil {
				if !j.HasLog() || !status.IsFailure(j.Status()) {
					a.status = fmt.Sprintf("%s has not failed", j.DisplayName())
					return nil, true
				}
				a.openConfirm("Retry Job",
					fmt.Sprintf("Retry %s in build #%d?", j.DisplayName(), b.Number),
					"retry-job", confirm.JobRef{
						BuildRef: confirm.BuildRef{Pipeline: a.pipeline, Number: b.Number},
						JobID:    j.ID,
						JobName:  j.DisplayName(),
					})
				return nil, true
			}
		}

	case "t":
		if (a.currentView == ViewBuilds && !fullScreen && a.pipeline != "") || a.currentView == ViewPipelines {
			p := a.currentPipeline()
			if a.currentView == ViewPipelines {
				sel := a.pipelinesView.SelectedPipeline()
				if sel == nil {
					return nil, true
				}
				p = *sel
			}
			a.triggerForm = trigger.New(p)
			a.triggerForm.SetSize(a.width, a.height)
			return a.triggerForm.Init(), true
		}

	case "e":
		if a.currentView == ViewPipelines {
			if p := a.pipelinesView.SelectedPipeline(); p != nil {
				a.status = fmt.Sprintf("Loading steps of %s...", p.Slug)
				return a.fetchPipelineConfig(p.Slug), true
			}
		}

	case "i":
		if a.currentView == ViewBuilds && !fullScreen {
			switch a.focusedPane {
			case PaneLeft:
				if b := a.buildsView.SelectedBuild(); b != nil {
					a.infoView.SetBuild(b)
					a.infoFullScreen = true
					a.propagateSize()
					return a.fetchBuild(b.Number), true
				}
			case PaneMiddle:
				if j := a.detailsView.SelectedJob(); j != nil {
					a.infoView.SetJob(j)
					a.infoFullScreen = true
					a.propagateSize()
					return nil, true
				}
			}
		}
	}
	return nil, false
}

func (a *App) openConfirm(title, message, action string, data any) {
	a.confirmDialog = confirm.New(title, message, action, data)
	a.confirmDialog.SetSize(a.width, a.height)
}

func (a *App) switchTab(key string) tea.Cmd {
	a.stopTailing()
	a.logFullScreen = false
	a.infoFullScreen = false
	a.focusedPane = PaneLeft

	switch key {
	case "1":
		a.currentView = ViewPipelines
		a.status = fmt.Sprintf("%d pipelines", len(a.pipelinesView.Pipelines()))
	case "2":
		a.currentView = ViewBuilds
		if a.pipeline == "" {
			a.status = "Select a pipeline on the Pipelines tab"
			return nil
		}
		a.propagateSize()
		a.status = a.buildsPageStatus(len(a.buildsView.Builds()))
	case "3":
		a.currentView = ViewMetrics
		if a.pipeline == "" {
			a.status = "Select a pipeline on the Pipelines tab"
			return nil
		}
		a.dashboardView.SetPipeline(a.pipeline)
		a.status = "Loading metrics..."
		return a.fetchDashboard(a.dashboardView.Range())
	case "4":
		a.currentView = ViewCache
		return a.listCache()
	case "5":
		a.currentView = ViewAgents
		a.status = "Loading agents..."
		return a.fetchAgents()
	}
	return nil
}

func (a *App) handleEnter() (tea.Cmd, bool) {
	switch a.currentView {
	case ViewPipelines:
		if p := a.pipelinesView.SelectedPipeline(); p != nil && !a.pipelinesView.IsFiltering() {
			return a.selectPipeline(p.Slug), true
		}
	case ViewBuilds:
		if a.logFullScreen || a.infoFullScreen {
			return nil, false
		}
		switch a.focusedPane {
		case PaneLeft:
			if b := a.buildsView.SelectedBuild(); b != nil {
				a.detailsView.SetBuild(b)
				a.focusedPane = PaneMiddle
				a.status = fmt.Sprintf("Loading jobs for #%d...", b.Number)
				return a.fetchBuild(b.Number), true
			}
		case PaneMiddle:
			b, j := a.detailsView.Build(), a.detailsView.SelectedJob()
			if b == nil || j == nil {
				return nil, true
			}
			if !j.HasLog() {
				a.status = fmt.Sprintf("%s has no log", j.DisplayName())
				return nil, true
			}
			if !status.IsClickable(j.Status()) && !j.Running() {
				a.status = fmt.Sprintf("%s has not produced a log yet", j.DisplayName())
				return nil, true
			}
			return a.openJobLog(b, *j), true
		}
	}
	return nil, false
}

func (a *App) handleJobLog(msg ui.JobLogLoadedMsg) tea.Cmd {
	isOpening := msg.Meta.JobID == a.openingJobID
	isTail := a.tailing != nil && a.tailing.JobID == msg.Meta.JobID
	if !isOpening && !isTail {
		return nil
	}

	if msg.Err != nil {
		a.status = fmt.Sprintf("Error loading log: %v", msg.Err)
		if isOpening {
			a.openingJobID = ""
			a.logView.SetContent(msg.Meta.JobID, msg.Meta.JobName, nil)
		}
		if isTail && a.logFullScreen {
			return a.scheduleLogTail(*a.tailing)
		}
		return nil
	}

	if isOpening {
		a.openingJobID = ""
		a.logView.SetContent(msg.Meta.JobID, msg.Meta.JobName, msg.Lines)
	} else {
		a.logView.UpdateContent(msg.Lines)
	}

	if !isTail {
		a.status = fmt.Sprintf("%s: %d lines", msg.Meta.JobName, len(msg.Lines))
		return nil
	}
	if !msg.Running {
		a.stopTailing()
		a.status = fmt.Sprintf("%s finished: %d lines", msg.Meta.JobName, len(msg.Lines))
		log.Debug().Str("job", msg.Meta.JobID).Msg("tail finished")
		return nil
	}
	a.status = fmt.Sprintf("Watching %s: %d lines", msg.Meta.JobName, len(msg.Lines))
	return a.scheduleLogTail(*a.tailing)
}

// propagate forwards msg to the sub-views. Keys reach only the focused view;
// data messages reach every view that may hold it.
func (a *App) propagate(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	keyMsg, isKey := msg.(tea.KeyMsg)
	isExit := isKey && (keyMsg.String() == "esc" || keyMsg.String() == "backspace" || keyMsg.String() == "delete")

	switch a.currentView {
	case ViewPipelines:
		a.pipelinesView, cmd = a.pipelinesView.Update(msg)
		cmds = append(cmds, cmd)

	case ViewBuilds:
		switch {
		case a.logFullScreen && isKey:
			if isExit && !a.logView.IsSearching() {
				a.logFullScreen = false
				a.stopTailing()
				if a.cameFromSearch {
					a.cameFromSearch = false
					a.searchView.ActivateResults()
					a.focusedPane = PaneLeft
				} else {
					a.focusedPane = PaneMiddle
				}
				a.propagateSize()
			} else {
				a.logView, cmd = a.logView.Update(msg)
				cmds = append(cmds, cmd)
			}
		case a.infoFullScreen && isKey:
			if isExit {
				a.infoFullScreen = false
				a.propagateSize()
			} else {
				a.infoView, cmd = a.infoView.Update(msg)
				cmds = append(cmds, cmd)
			}
		case isKey:
			hadFilter := a.buildsView.HasActiveFilter()
			switch a.focusedPane {
			case PaneLeft:
				a.buildsView, cmd = a.buildsView.Update(msg)
			case PaneMiddle:
				a.detailsView, cmd = a.detailsView.Update(msg)
			}
			cmds = append(cmds, cmd)

			// esc navigation: middle -> left, then clear the server filter.
			if keyMsg.String() == "esc" {
				if a.focusedPane == PaneMiddle {
					a.focusedPane = PaneLeft
				} else if !hadFilter && !a.buildsFilter.IsEmpty() {
					a.buildsFilter = filteroverlay.FilterResult{}
					a.resetBuilds()
					a.propagateSize()
					a.status = "Loading builds..."
					cmds = append(cmds, a.fetchBuilds())
				}
			}
		default:
			cmds = append(cmds, a.propagateData(msg)...)
		}

	case ViewMetrics:
		a.dashboardView, cmd = a.dashboardView.Update(msg)
		cmds = append(cmds, cmd)
	case ViewCache:
		a.cacheView, cmd = a.cacheView.Update(msg)
		cmds = append(cmds, cmd)
	case ViewAgents:
		a.agentsView, cmd = a.agentsView.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !isKey {
		cmds = append(cmds, a.propagateBackground(msg)...)
	}
	return cmds
}

// propagateData feeds the Builds tab's views.
func (a *App) propagateData(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.buildsView, cmd = a.buildsView.Update(msg)
	cmds = append(cmds, cmd)
	a.detailsView, cmd = a.detailsView.Update(msg)
	cmds = append(cmds, cmd)
	a.infoView, cmd = a.infoView.Update(msg)
	cmds = append(cmds, cmd)
	a.logView, cmd = a.logView.Update(msg)
	cmds = append(cmds, cmd)
	return cmds
}

// propagateBackground delivers data to views of tabs not showing, so a
// response is not lost when the user switches away while it loads.
func (a *App) propagateBackground(msg tea.Msg) []tea.Cmd {
	var cmd tea.Cmd
	switch msg.(type) {
	case ui.BuildsLoadedMsg, ui.BuildsPageMsg, ui.BuildLoadedMsg:
		if a.currentView != ViewBuilds {
			return a.propagateData(msg)
		}
	case ui.PipelinesLoadedMsg, ui.PipelineStatsMsg:
		if a.currentView != ViewPipelines {
			a.pipelinesView, cmd = a.pipelinesView.Update(msg)
		}
	case ui.DashboardDataMsg:
		if a.currentView != ViewMetrics {
			a.dashboardView, cmd = a.dashboardView.Update(msg)
		}
	case ui.LogCacheMsg:
		if a.currentView != ViewCache {
			a.cacheView, cmd = a.cacheView.Update(msg)
		}
	case ui.AgentsLoadedMsg:
		if a.currentView != ViewAgents {
			a.agentsView, cmd = a.agentsView.Update(msg)
		}
	}
	return []tea.Cmd{cmd}
}

func countMatches(results []*model.SearchResults) int {
	n := 0
	for _, r := range results {
		if r != nil {
			n += r.TotalCount
		}
	}
	return n
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

// watching reports whether something on screen is refreshed at the fast
// interval.
func (a App) watching() bool {
	if a.tailing != nil {
		return true
	}
	return a.currentView == ViewBuilds && a.anyRunning()
}

func (a App) buildsPageStatus(shown int) string {
	paged := a.buildsPage > 1 || a.buildsHasMore
	s := fmt.Sprintf("%d builds", shown)
	if paged {
		s = fmt.Sprintf("Page %d  |  %s", a.buildsPage, s)
	}
	if summary := a.buildsFilter.Summary(); summary != "" {
		s += "  |  " + summary
	}
	if paged {
		s += "  |  <-/->: page"
	}
	return s
}

func (a App) isListFiltering() bool {
	switch a.currentView {
	case ViewPipelines:
		return a.pipelinesView.IsFiltering()
	case ViewBuilds:
		return !a.logFullScreen && !a.infoFullScreen && a.buildsView.IsFiltering()
	case ViewCache:
		return a.cacheView.IsFiltering()
	case ViewAgents:
		return a.agentsView.IsFiltering()
	}
	return false
}

func (a *App) propagateSize() {
	// Total vertical budget:
	//   header(1) + tabs(1) + status(1) = 3 lines of chrome
	//   pane border top(1) + bottom(1) = 2 lines
	contentH := max(a.height-5, 1)

	// 2-pane layout: each border = 2 chars horizontal, 2 panes = 4
	leftW := a.width * 45 / 100
	midW := max(a.width-leftW-4, 1)
	fullW := a.width - 4

	a.buildsView, _ = a.buildsView.Update(tea.WindowSizeMsg{Width: leftW, Height: contentH})
	a.detailsView, _ = a.detailsView.Update(tea.WindowSizeMsg{Width: midW, Height: contentH})

	full := tea.WindowSizeMsg{Width: fullW, Height: contentH}
	a.pipelinesView, _ = a.pipelinesView.Update(full)
	a.logView, _ = a.logView.Update(full)
	a.infoView, _ = a.infoView.Update(full)
	a.searchView, _ = a.searchView.Update(full)
	a.dashboardView, _ = a.dashboardView.Update(full)
	a.cacheView, _ = a.cacheView.Update(full)
	a.agentsView, _ = a.agentsView.Update(full)

	a.confirmDialog.SetSize(a.width, a.height)
	a.filterOverlay.SetSize(a.width, a.height)
	a.triggerForm.SetSize(a.width, a.height)
	a.configEditor.SetSize(a.width, max(a.height-3, 1))
}

// --- View ---

func (a App) View() string {
	header := RenderHeader(a.client.Org(), a.pipeline, a.utc, a.client.RateLimit(), a.width)
	tabs := a.renderTabs()

	contentH := max(a.height-5, 1)
	single := ui.StylePaneFocused.Width(a.width - 2).Height(contentH)

	var content string
	switch a.currentView {
	case ViewPipelines:
		content = single.Render(a.pipelinesView.View())
	case ViewBuilds:
		content = a.renderBuildsLayout()
	case ViewMetrics:
		content = single.Render(a.dashboardView.View())
	case ViewCache:
		content = single.Render(a.cacheView.View())
	case ViewAgents:
		content = single.Render(a.agentsView.View())
	}

	switch {
	case a.showHelp:
		content = a.renderHelp()
	case a.confirmDialog.IsActive():
		content = a.confirmDialog.View()
	case a.filterOverlay.IsActive():
		content = a.filterOverlay.View()
	case a.triggerForm.IsActive():
		content = a.triggerForm.View()
	case a.configEditor.IsActive():
		content = a.configEditor.View()
	}

	statusBar := RenderStatusBar(a.status, a.contextHints(), a.watching(), a.width)

	// Hard clamp: content never overflows the terminal.
	if maxContentLines := a.height - 3; maxContentLines > 0 {
		lines := strings.Split(content, "\n")
		if len(lines) > maxContentLines {
			content = strings.Join(lines[:maxContentLines], "\n")
		}
	}

	return header + "\n" + tabs + "\n" + content + "\n" + statusBar
}

func (a App) renderTabs() string {
	tabStyle := lipgloss.NewStyle().Padding(0, 2)
	activeTab := tabStyle.Bold(true).Foreground(ui.ColorPrimary)
	inactiveTab := tabStyle.Foreground(ui.ColorMuted)

	buildsLabel := "[2] Builds"
	if summary := a.buildsFilter.Summary(); summary != "" {
		buildsLabel = fmt.Sprintf("[2] Builds (%s)", summary)
	}
	labels := []string{"[1] Pipelines", buildsLabel, "[3] Metrics", "[4] Cache", "[5] Agents"}

	rendered := make([]string, len(labels))
	for i, l := range labels {
		if View(i) == a.currentView {
			rendered[i] = activeTab.Render(l)
		} else {
			rendered[i] = inactiveTab.Render(l)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (a App) contextHints() string {
	if a.currentView == ViewBuilds {
		if a.logFullScreen {
			if a.logView.IsSearching() {
				return "enter:confirm  esc:cancel"
			}
			if a.tailing != nil {
				return "[LIVE]  /:search  n/N:match  e:type  j/k:scroll  g/G:top/bot  esc:back"
			}
			return "/:search  n/N:match  e:type  t:time  j/k:scroll  g/G:top/bot  esc:back"
		}
		if a.infoFullScreen {
			return "j/k:scroll  PgUp/PgDn:page  esc:back"
		}
		if a.searchView.IsActive() {
			if a.searchView.IsInputMode() {
				return "enter:search  tab:type  esc:close"
			}
			return "enter:view log  j/k:navigate  /:new search  esc:close"
		}
		legend := fmt.Sprintf("%s=pass %s=fail %s=cancel %s=run %s=block",
			ui.StatusIcon(status.Passed),
			ui.StatusIcon(status.Failed),
			ui.StatusIcon(status.Canceled),
			ui.StatusIcon(status.Running),
			ui.StatusIcon(status.Blocked),
		)
		if a.focusedPane == PaneLeft {
			return legend + "  |  S:filter  t:new  R:rebuild  C:cancel  i:info  /:search  ?:help"
		}
		return legend + "  |  enter:view log  F:retry  i:info  tab:pane  ?:help  esc:back"
	}

	switch a.currentView {
	case ViewPipelines:
		return "enter:builds  t:new build  e:edit steps  f:filter  r:refresh  ?:help"
	case ViewMetrics:
		return "[:prev window  ]:next window  j/k:scroll  ?:help"
	case ViewCache:
		return "space:select  d:remove  x:clear all  s:sort  f:filter  ?:help"
	case ViewAgents:
		return "r:refresh  f:filter  ?:help"
	}
	return "?:help  q:quit"
}

func (a App) renderBuildsLayout() string {
	contentH := max(a.height-5, 1)
	single := ui.StylePaneFocused.Width(a.width - 2).Height(contentH)

	switch {
	case a.pipeline == "":
		return single.Render("\n  Select a pipeline on the Pipelines tab")
	case a.logFullScreen:
		return single.Render(a.logView.View())
	case a.infoFullScreen:
		return single.Render(a.infoView.View())
	case a.searchView.IsActive():
		return single.Render(a.searchView.View())
	}

	// 2-pane layout (builds + jobs)
	leftW := a.width * 45 / 100
	midW := max(a.width-leftW-4, 1)

	leftStyle := ui.StylePane.Width(leftW).Height(contentH)
	midStyle := ui.StylePane.Width(midW).Height(contentH)
	if a.focusedPane == PaneLeft {
		leftStyle = ui.StylePaneFocused.Width(leftW).Height(contentH)
	} else {
		midStyle = ui.StylePaneFocused.Width(midW).Height(contentH)
	}

	left := leftStyle.Render(a.buildsView.View())
	mid := midStyle.Render(a.detailsView.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, mid)
}

func (a App) renderHelp() string {
	contentH := max(a.height-5, 1)

	bold := lipgloss.NewStyle().Bold(true)
	key := lipgloss.NewStyle().Foreground(ui.ColorPrimary).Bold(true).Width(14)
	desc := lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB"))

	row := func(k, d string) string {
		return "  " + key.Render(k) + desc.Render(d) + "\n"
	}

	var b strings.Builder
	b.WriteString("\n" + bold.Render("  Navigation") + "\n\n")
	b.WriteString(row("1-5", "Switch tab: Pipelines, Builds, Metrics, Cache, Agents"))
	b.WriteString(row("tab", "Next pane"))
	b.WriteString(row("esc / bksp", "Back / close log view"))
	b.WriteString(row("j / k", "Move down / up"))
	b.WriteString(row("enter", "Select item"))
	b.WriteString(row("u", "Toggle UTC / local dates"))
	b.WriteString(row("q", "Quit"))

	b.WriteString("\n" + bold.Render("  Pipelines") + "\n\n")
	b.WriteString(row("enter", "Show builds"))
	b.WriteString(row("t", "New build"))
	b.WriteString(row("e", "Edit pipeline steps"))

	b.WriteString("\n" + bold.Render("  Builds") + "\n\n")
	b.WriteString(row("S", "Server-side filter"))
	b.WriteString(row("space", "Toggle select build"))
	b.WriteString(row("r", "Refresh"))
	b.WriteString(row("t", "New build"))
	b.WriteString(row("R", "Rebuild"))
	b.WriteString(row("C", "Cancel build (or all selected)"))
	b.WriteString(row("F", "Retry failed job"))
	b.WriteString(row("i", "Build or job info"))
	b.WriteString(row("<- / ->", "Previous / next page"))

	b.WriteString("\n" + bold.Render("  Search & Filter") + "\n\n")
	b.WriteString(row("/", "Search the build's logs (/ prefix for regex)"))
	b.WriteString(row("f", "Filter list"))

	b.WriteString("\n" + bold.Render("  Log Viewer") + "\n\n")
	b.WriteString(row("/", "Search in log"))
	b.WriteString(row("n / N", "Next / previous match"))
	b.WriteString(row("e", "Cycle line type filter"))
	b.WriteString(row("t", "Toggle timestamps"))
	b.WriteString(row("g / G", "Go to top / bottom"))
	b.WriteString(row("esc", "Exit log view"))

	b.WriteString("\n" + bold.Render("  Metrics") + "\n\n")
	b.WriteString(row("[ / ]", "Cycle date window"))

	b.WriteString("\n" + bold.Render("  Cache (processed logs)") + "\n\n")
	b.WriteString(row("s", "Cycle sort mode (last used / cached / size)"))
	b.WriteString(row("d", "Remove selected logs"))
	b.WriteString(row("x", "Clear the cache"))

	b.WriteString("\n" + lipgloss.NewStyle().Foreground(ui.ColorMuted).Render("  Press any key to close") + "\n")

	style := ui.StylePaneFocused.Width(a.width - 2).Height(contentH)
	return style.Render(b.String())
}

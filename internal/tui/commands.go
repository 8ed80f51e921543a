package tui

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/phuslu/log"

	"github.com/altinukshini/bk-tui/internal/api"
	"github.com/altinukshini/bk-tui/internal/cache"
	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/ops"
	"github.com/altinukshini/bk-tui/internal/timefmt"
	"github.com/altinukshini/bk-tui/internal/tui/confirm"
	"github.com/altinukshini/bk-tui/internal/ui"
)

const (
	// runningPollInterval replaces the configured interval while a build
	// is in progress.
	runningPollInterval = 3 * time.Second
	tailInterval        = 3 * time.Second

	dashboardPerPage  = 100
	dashboardMaxPages = 2
)

// --- Data fetching commands ---

func (a App) fetchPipelines() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		pipelines, err := client.ListPipelines(context.Background(), 100, 1)
		if err != nil {
			log.Error().Err(err).Msg("list pipelines")
			return ui.PipelinesLoadedMsg{Err: err}
		}
		return ui.PipelinesLoadedMsg{Pipelines: pipelines}
	}
}

// fetchPipelineStats loads the latest build of every pipeline, five at a
// time.
func (a App) fetchPipelineStats(pipelines []model.Pipeline) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		var mu sync.Mutex
		latest := make(map[string]model.Build, len(pipelines))
		sem := make(chan struct{}, 5)
		var wg sync.WaitGroup

		for _, p := range pipelines {
			wg.Add(1)
			go func(slug string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				builds, err := client.ListBuilds(context.Background(), slug, api.BuildsFilter{PerPage: 1})
				if err != nil {
					log.Warn().Err(err).Str("pipeline", slug).Msg("latest build")
					return
				}
				if len(builds) == 0 {
					return
				}
				mu.Lock()
				latest[slug] = builds[0]
				mu.Unlock()
			}(p.Slug)
		}
		wg.Wait()
		return ui.PipelineStatsMsg{Latest: latest}
	}
}

// serverFilter maps the overlay selection onto the builds endpoint. The
// creator filter needs a user ID upstream, so names are matched locally.
func (a App) serverFilter(page int) api.BuildsFilter {
	r := a.buildsFilter.Range(a.clock.Now())
	return api.BuildsFilter{
		Branch:      a.buildsFilter.Branch,
		State:       a.buildsFilter.State,
		CreatedFrom: r.Start,
		CreatedTo:   r.End,
		PerPage:     a.cfg.PerPage,
		Page:        page,
	}
}

func (a App) listBuilds(page int) ([]model.Build, bool, error) {
	filter := a.serverFilter(page)
	builds, err := a.client.ListBuilds(context.Background(), a.pipeline, filter)
	if err != nil {
		return nil, false, err
	}
	hasMore := len(builds) >= filter.PerPage
	if local := a.buildsFilter.BuildFilter(a.clock.Now()); !local.Empty() {
		builds = ops.FilterBuilds(builds, local)
	}
	return builds, hasMore, nil
}

func (a App) fetchBuilds() tea.Cmd {
	pipeline := a.pipeline
	if pipeline == "" {
		return nil
	}
	return func() tea.Msg {
		builds, hasMore, err := a.listBuilds(1)
		if err != nil {
			log.Error().Err(err).Str("pipeline", pipeline).Msg("list builds")
			return ui.BuildsLoadedMsg{Pipeline: pipeline, Err: err}
		}
		return ui.BuildsLoadedMsg{Pipeline: pipeline, Builds: builds, HasMore: hasMore}
	}
}

func (a App) fetchBuildsPage(page int) tea.Cmd {
	pipeline := a.pipeline
	return func() tea.Msg {
		builds, hasMore, err := a.listBuilds(page)
		if err != nil {
			log.Error().Err(err).Str("pipeline", pipeline).Int("page", page).Msg("list builds")
			return ui.BuildsPageMsg{Pipeline: pipeline, Page: page, Err: err}
		}
		return ui.BuildsPageMsg{Pipeline: pipeline, Builds: builds, Page: page, HasMore: hasMore}
	}
}

func (a App) fetchBuild(number int) tea.Cmd {
	client, pipeline := a.client, a.pipeline
	return func() tea.Msg {
		build, err := client.GetBuild(context.Background(), pipeline, number)
		if err != nil {
			log.Error().Err(err).Str("pipeline", pipeline).Int("build", number).Msg("get build")
			return ui.BuildLoadedMsg{Pipeline: pipeline, Number: number, Err: err}
		}
		return ui.BuildLoadedMsg{Pipeline: pipeline, Number: number, Build: build}
	}
}

func (a App) jobMeta(number int, job model.Job) cache.CacheMeta {
	return cache.CacheMeta{
		Pipeline:    a.pipeline,
		BuildNumber: number,
		JobID:       job.ID,
		JobName:     job.DisplayName(),
	}
}

// loadJobLog downloads a job log and runs it through the processed-log
// cache.
func loadJobLog(client *api.Client, lc *cache.LogCache, meta cache.CacheMeta) error {
	jl, err := client.GetJobLog(context.Background(), meta.Pipeline, meta.BuildNumber, meta.JobID)
	if err != nil {
		return err
	}
	lc.Lines(meta, jl.Content)
	return nil
}

func (a App) fetchJobLog(meta cache.CacheMeta, running bool) tea.Cmd {
	client, lc := a.client, a.logCache
	return func() tea.Msg {
		jl, err := client.GetJobLog(context.Background(), meta.Pipeline, meta.BuildNumber, meta.JobID)
		if err != nil {
			log.Error().Err(err).Str("job", meta.JobID).Msg("get job log")
			return ui.JobLogLoadedMsg{Meta: meta, Err: err}
		}
		return ui.JobLogLoadedMsg{Meta: meta, Lines: lc.Lines(meta, jl.Content), Running: running}
	}
}

// tailJobLog re-reads the job's state before its log so the last fetch
// after completion is known to be final.
func (a App) tailJobLog(meta cache.CacheMeta) tea.Cmd {
	client, lc := a.client, a.logCache
	return func() tea.Msg {
		ctx := context.Background()
		running := true
		build, err := client.GetBuild(ctx, meta.Pipeline, meta.BuildNumber)
		if err == nil {
			for _, j := range build.Jobs {
				if j.ID == meta.JobID {
					running = j.Running()
					break
				}
			}
		}
		jl, err := client.GetJobLog(ctx, meta.Pipeline, meta.BuildNumber, meta.JobID)
		if err != nil {
			return ui.JobLogLoadedMsg{Meta: meta, Running: running, Err: err}
		}
		return ui.JobLogLoadedMsg{Meta: meta, Lines: lc.Lines(meta, jl.Content), Running: running}
	}
}

func (a App) scheduleLogTail(meta cache.CacheMeta) tea.Cmd {
	return tea.Tick(tailInterval, func(time.Time) tea.Msg {
		return ui.LogTailTickMsg{Pipeline: meta.Pipeline, Number: meta.BuildNumber, JobID: meta.JobID}
	})
}

// searchBuild searches every script job of the build. Logs not yet cached
// are downloaded first, three at a time.
func (a App) searchBuild(build model.Build, query model.SearchQuery) tea.Cmd {
	client, lc, engine := a.client, a.logCache, a.search
	var metas []cache.CacheMeta
	for _, j := range build.Jobs {
		if j.HasLog() && !j.Retried {
			metas = append(metas, a.jobMeta(build.Number, j))
		}
	}
	cached := make(map[string]bool)
	for _, m := range lc.ForBuild(a.pipeline, build.Number) {
		cached[m.JobID] = true
	}

	return func() tea.Msg {
		sem := make(chan struct{}, 3)
		var wg sync.WaitGroup
		for _, meta := range metas {
			if cached[meta.JobID] {
				continue
			}
			wg.Add(1)
			go func(meta cache.CacheMeta) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				if err := loadJobLog(client, lc, meta); err != nil {
					log.Warn().Err(err).Str("job", meta.JobID).Msg("search: fetch job log")
				}
			}(meta)
		}
		wg.Wait()

		var results []*model.SearchResults
		for _, meta := range metas {
			lines, ok := lc.Cached(meta)
			if !ok {
				continue
			}
			results = append(results, engine.Search(meta.JobID, meta.JobName, lines, query))
		}
		return ui.SearchDoneMsg{Results: results}
	}
}

func (a App) fetchDashboard(r timefmt.DateRange) tea.Cmd {
	client, pipeline := a.client, a.pipeline
	return func() tea.Msg {
		var all []model.Build
		for page := 1; page <= dashboardMaxPages; page++ {
			builds, err := client.ListBuilds(context.Background(), pipeline, api.BuildsFilter{
				CreatedFrom: r.Start,
				CreatedTo:   r.End,
				PerPage:     dashboardPerPage,
				Page:        page,
			})
			if err != nil {
				log.Error().Err(err).Str("pipeline", pipeline).Msg("dashboard builds")
				return ui.DashboardDataMsg{Err: err}
			}
			all = append(all, builds...)
			if len(builds) < dashboardPerPage {
				break
			}
		}
		return ui.DashboardDataMsg{Builds: all}
	}
}

func (a App) listCache() tea.Cmd {
	lc := a.logCache
	return func() tea.Msg {
		return ui.LogCacheMsg{Entries: lc.ListEntries()}
	}
}

func (a App) fetchAgents() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		agents, err := client.ListAgents(context.Background(), 100, 1)
		if err != nil {
			log.Error().Err(err).Msg("list agents")
			return ui.AgentsLoadedMsg{Err: err}
		}
		sort.SliceStable(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
		return ui.AgentsLoadedMsg{Agents: agents}
	}
}

func (a App) fetchPipelineConfig(slug string) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		p, err := client.GetPipeline(context.Background(), slug)
		return ui.PipelineConfigLoadedMsg{Pipeline: p, Err: err}
	}
}

// pollInterval shortens the refresh while anything visible is running.
// anyRunning reports whether a listed build or the open build is in
// progress.
func (a App) anyRunning() bool {
	if a.buildsView.AnyRunning() {
		return true
	}
	b := a.detailsView.Build()
	return b != nil && b.Running()
}

func (a App) pollInterval() time.Duration {
	if a.anyRunning() {
		return runningPollInterval
	}
	if a.cfg.PollInterval.Duration > 0 {
		return a.cfg.PollInterval.Duration
	}
	return 10 * time.Second
}

func (a App) schedulePoll() tea.Cmd {
	seq := a.pollSeq
	return tea.Tick(a.pollInterval(), func(time.Time) tea.Msg {
		return ui.PollTickMsg{Seq: seq}
	})
}

// --- Action commands ---

func (a App) doRebuild(ref confirm.BuildRef) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		b, err := client.RebuildBuild(context.Background(), ref.Pipeline, ref.Number)
		action := "Rebuild " + ref.String()
		if err == nil && b != nil {
			action = fmt.Sprintf("Rebuild %s as #%d", ref, b.Number)
		}
		return ui.ActionResultMsg{Action: action, Success: err == nil, Err: err}
	}
}

func (a App) doCancelBuild(ref confirm.BuildRef) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		_, err := client.CancelBuild(context.Background(), ref.Pipeline, ref.Number)
		return ui.ActionResultMsg{Action: "Cancel " + ref.String(), Success: err == nil, Err: err}
	}
}

func (a App) doCancelSelected(pipeline string, numbers []int) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		sort.Ints(numbers)
		res, err := ops.BulkCancelBuilds(context.Background(), client, pipeline, numbers, func(done, total int) {
			log.Debug().Int("done", done).Int("total", total).Msg("bulk cancel")
		})
		if err == nil && res.Failed > 0 {
			err = fmt.Errorf("%d failed, first error: %w", res.Failed, res.Errors[0])
		}
		completed := 0
		if res != nil {
			completed = res.Completed
		}
		return ui.ActionResultMsg{
			Action:  fmt.Sprintf("Cancel selected (%d/%d)", completed, len(numbers)),
			Success: err == nil,
			Err:     err,
		}
	}
}

func (a App) doRetryJob(ref confirm.JobRef) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		_, err := client.RetryJob(context.Background(), ref.Pipeline, ref.Number, ref.JobID)
		return ui.ActionResultMsg{Action: "Retry " + ref.JobName, Success: err == nil, Err: err}
	}
}

func (a App) doCreateBuild(pipeline string, req model.CreateBuild) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		b, err := client.CreateBuild(context.Background(), pipeline, req)
		return ui.BuildCreatedMsg{Build: b, Err: err}
	}
}

func (a App) doSavePipeline(slug, configuration string) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		_, err := client.UpdatePipelineConfiguration(context.Background(), slug, configuration)
		return ui.PipelineSavedMsg{Slug: slug, Err: err}
	}
}

package ui

import (
	"github.com/altinukshini/bk-tui/internal/cache"
	"github.com/altinukshini/bk-tui/internal/logs"
	"github.com/altinukshini/bk-tui/internal/model"
)

// Data fetched messages
type PipelinesLoadedMsg struct {
	Pipelines []model.Pipeline
	Err       error
}

// PipelineStatsMsg carries the latest build of each pipeline, keyed by slug.
type PipelineStatsMsg struct {
	Latest map[string]model.Build
}

// BuildsLoadedMsg is the first page of builds. HasMore is judged on the
// server page before client-side filtering.
type BuildsLoadedMsg struct {
	Pipeline string
	Builds   []model.Build
	HasMore  bool
	Err      error
}

type BuildsPageMsg struct {
	Pipeline string
	Builds   []model.Build
	Page     int
	HasMore  bool
	Err      error
}

// BuildLoadedMsg is a single build refreshed with its jobs.
type BuildLoadedMsg struct {
	Pipeline string
	Number   int
	Build    *model.Build
	Err      error
}

// JobLogLoadedMsg carries a processed job log. Running reports whether the
// job was still in progress when the log was fetched.
type JobLogLoadedMsg struct {
	Meta    cache.CacheMeta
	Lines   []logs.Line
	Running bool
	Err     error
}

type SearchDoneMsg struct {
	Results []*model.SearchResults
	Err     error
}

type PipelineConfigLoadedMsg struct {
	Pipeline *model.Pipeline
	Err      error
}

type PipelineSavedMsg struct {
	Slug string
	Err  error
}

type BuildCreatedMsg struct {
	Build *model.Build
	Err   error
}

// Action result messages
type ActionResultMsg struct {
	Action  string
	Success bool
	Err     error
}

type DashboardDataMsg struct {
	Builds []model.Build
	Err    error
}

type AgentsLoadedMsg struct {
	Agents []model.Agent
	Err    error
}

type LogCacheMsg struct {
	Entries []cache.CacheEntry
}

// PollTickMsg fires the builds list refresh loop. Seq discards ticks from a
// loop that has since been restarted.
type PollTickMsg struct {
	Seq int
}

type LogTailTickMsg struct {
	Pipeline string
	Number   int
	JobID    string
}

type StatusMsg struct {
	Text string
}

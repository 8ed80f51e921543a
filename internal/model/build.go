package model

import (
	"strings"
	"time"

	"github.com/altinukshini/bk-tui/internal/status"
	"github.com/altinukshini/bk-tui/internal/timefmt"
)

// Build states accepted by the builds endpoint's state filter.
const (
	StateRunning   = "running"
	StateScheduled = "scheduled"
	StatePassed    = "passed"
	StateFailing   = "failing"
	StateFailed    = "failed"
	StateBlocked   = "blocked"
	StateCanceled  = "canceled"
	StateSkipped   = "skipped"
	StateNotRun    = "not_run"
)

// BuildStates lists the filterable states in display order.
var BuildStates = []string{
	StateRunning, StateScheduled, StatePassed, StateFailing, StateFailed,
	StateBlocked, StateCanceled, StateSkipped, StateNotRun,
}

type Build struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	WebURL      string            `json:"web_url"`
	Number      int               `json:"number"`
	State       string            `json:"state"`
	Blocked     bool              `json:"blocked"`
	Message     string            `json:"message"`
	Commit      string            `json:"commit"`
	Branch      string            `json:"branch"`
	Tag         string            `json:"tag"`
	Source      string            `json:"source"`
	Env         map[string]string `json:"env"`
	MetaData    map[string]string `json:"meta_data"`
	Creator     *Creator          `json:"creator"`
	Author      *Author           `json:"author"`
	Jobs        []Job             `json:"jobs"`
	CreatedAt   *time.Time        `json:"created_at"`
	ScheduledAt *time.Time        `json:"scheduled_at"`
	StartedAt   *time.Time        `json:"started_at"`
	FinishedAt  *time.Time        `json:"finished_at"`
	Pipeline    *Pipeline         `json:"pipeline,omitempty"`
}

// Creator is the Buildkite user that created a build.
type Creator struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// Author is the commit author recorded on a build.
type Author struct {
	Username string `json:"username,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

func (b Build) Status() status.Status {
	return status.Map(b.State)
}

func (b Build) Running() bool {
	return timefmt.IsRunning(b.State)
}

func (b Build) Duration(now time.Time) string {
	return timefmt.BuildDuration(b.StartedAt, b.FinishedAt, b.Running(), now)
}

func (b Build) ShortSHA() string {
	if len(b.Commit) >= 7 {
		return b.Commit[:7]
	}
	return b.Commit
}

// Title is the first line of the commit message.
func (b Build) Title() string {
	title, _, _ := strings.Cut(strings.TrimSpace(b.Message), "\n")
	return strings.TrimSpace(title)
}

// CreatedBy names whoever triggered the build, falling back to the commit
// author.
func (b Build) CreatedBy() string {
	switch {
	case b.Creator != nil && b.Creator.Name != "":
		return b.Creator.Name
	case b.Author != nil && b.Author.Name != "":
		return b.Author.Name
	case b.Author != nil:
		return b.Author.Username
	}
	return ""
}

// CreateBuild is the request body for triggering a new build.
type CreateBuild struct {
	Commit                      string            `json:"commit" validate:"required"`
	Branch                      string            `json:"branch" validate:"required"`
	Message                     string            `json:"message,omitempty"`
	Author                      *Author           `json:"author,omitempty"`
	Env                         map[string]string `json:"env,omitempty"`
	MetaData                    map[string]string `json:"meta_data,omitempty"`
	CleanCheckout               bool              `json:"clean_checkout,omitempty"`
	IgnorePipelineBranchFilters bool              `json:"ignore_pipeline_branch_filters,omitempty"`
}

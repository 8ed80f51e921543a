package model

import (
	"time"

	"github.com/altinukshini/bk-tui/internal/status"
	"github.com/altinukshini/bk-tui/internal/timefmt"
)

// Job types reported by Buildkite. Only script jobs produce logs.
const (
	JobTypeScript  = "script"
	JobTypeWaiter  = "waiter"
	JobTypeManual  = "manual"
	JobTypeTrigger = "trigger"
)

type Job struct {
	ID                 string     `json:"id"`
	Type               string     `json:"type"`
	Name               string     `json:"name"`
	Label              string     `json:"label"`
	StepKey            string     `json:"step_key"`
	State              string     `json:"state"`
	Command            string     `json:"command"`
	WebURL             string     `json:"web_url"`
	LogURL             string     `json:"log_url"`
	RawLogURL          string     `json:"raw_log_url"`
	SoftFailed         bool       `json:"soft_failed"`
	ExitStatus         *int       `json:"exit_status"`
	Retried            bool       `json:"retried"`
	RetriesCount       int        `json:"retries_count"`
	Agent              *Agent     `json:"agent"`
	CreatedAt          *time.Time `json:"created_at"`
	ScheduledAt        *time.Time `json:"scheduled_at"`
	StartedAt          *time.Time `json:"started_at"`
	FinishedAt         *time.Time `json:"finished_at"`
	ParallelGroupIndex *int       `json:"parallel_group_index"`
	ParallelGroupTotal *int       `json:"parallel_group_total"`
}

// JobLog is the payload of the job log endpoint.
type JobLog struct {
	URL     string `json:"url"`
	Content string `json:"content"`
	Size    int64  `json:"size"`
}

func (j Job) Status() status.Status {
	return status.Map(j.State)
}

func (j Job) Running() bool {
	return timefmt.IsRunning(j.State)
}

func (j Job) Duration(now time.Time) string {
	return timefmt.BuildDuration(j.StartedAt, j.FinishedAt, j.Running(), now)
}

// HasLog reports whether the job type produces output.
func (j Job) HasLog() bool {
	return j.Type == JobTypeScript
}

// DisplayName picks the most descriptive name available.
func (j Job) DisplayName() string {
	switch {
	case j.Label != "":
		return j.Label
	case j.Name != "":
		return j.Name
	case j.Command != "":
		return j.Command
	case j.Type == JobTypeWaiter:
		return "wait"
	}
	return j.Type
}

func (j Job) Failed() bool {
	return status.IsFailure(j.Status())
}

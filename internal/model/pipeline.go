package model

import "time"

type Pipeline struct {
	ID                   string     `json:"id"`
	URL                  string     `json:"url"`
	WebURL               string     `json:"web_url"`
	Name                 string     `json:"name"`
	Slug                 string     `json:"slug"`
	Description          string     `json:"description"`
	Repository           string     `json:"repository"`
	DefaultBranch        string     `json:"default_branch"`
	Configuration        string     `json:"configuration"`
	Visibility           string     `json:"visibility"`
	Tags                 []string   `json:"tags"`
	Provider             *Provider  `json:"provider"`
	BuildsURL            string     `json:"builds_url"`
	BadgeURL             string     `json:"badge_url"`
	RunningBuildsCount   int        `json:"running_builds_count"`
	ScheduledBuildsCount int        `json:"scheduled_builds_count"`
	RunningJobsCount     int        `json:"running_jobs_count"`
	ScheduledJobsCount   int        `json:"scheduled_jobs_count"`
	CreatedAt            *time.Time `json:"created_at"`
	ArchivedAt           *time.Time `json:"archived_at"`
}

// Provider is the source-control integration of a pipeline.
type Provider struct {
	ID         string         `json:"id"`
	WebhookURL string         `json:"webhook_url"`
	Settings   map[string]any `json:"settings"`
}

// PipelineUpdate is the PATCH body for a pipeline. Nil fields are left
// unchanged.
type PipelineUpdate struct {
	Configuration *string `json:"configuration,omitempty"`
	Description   *string `json:"description,omitempty"`
	DefaultBranch *string `json:"default_branch,omitempty"`
}

func (p Pipeline) Archived() bool {
	return p.ArchivedAt != nil
}

func (p Pipeline) Busy() bool {
	return p.RunningBuildsCount > 0 || p.ScheduledBuildsCount > 0
}

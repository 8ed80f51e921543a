package api

import (
	"context"

	"github.com/altinukshini/bk-tui/internal/model"
)

// ListJobs returns the jobs of a build. Buildkite embeds them in the build
// payload, so this is a build fetch.
func (c *Client) ListJobs(ctx context.Context, pipeline string, number int) ([]model.Job, error) {
	build, err := c.GetBuild(ctx, pipeline, number)
	if err != nil {
		return nil, err
	}
	return build.Jobs, nil
}

// FailedJobs filters jobs down to those in a failure state.
func FailedJobs(jobs []model.Job) []model.Job {
	var failed []model.Job
	for _, j := range jobs {
		if j.Failed() {
			failed = append(failed, j)
		}
	}
	return failed
}

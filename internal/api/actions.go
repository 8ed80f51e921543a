package api

import (
	"context"
	"fmt"

	"github.com/altinukshini/bk-tui/internal/model"
)

func (c *Client) RebuildBuild(ctx context.Context, pipeline string, number int) (*model.Build, error) {
	var build model.Build
	err := c.Put(ctx, c.pipelinePath(pipeline, fmt.Sprintf("builds/%d/rebuild", number)), nil, &build)
	if err != nil {
		return nil, fmt.Errorf("rebuild build %d: %w", number, err)
	}
	return &build, nil
}

func (c *Client) CancelBuild(ctx context.Context, pipeline string, number int) (*model.Build, error) {
	var build model.Build
	err := c.Put(ctx, c.pipelinePath(pipeline, fmt.Sprintf("builds/%d/cancel", number)), nil, &build)
	if err != nil {
		return nil, fmt.Errorf("cancel build %d: %w", number, err)
	}
	return &build, nil
}

func (c *Client) RetryJob(ctx context.Context, pipeline string, number int, jobID string) (*model.Job, error) {
	var job model.Job
	err := c.Put(ctx, c.pipelinePath(pipeline, fmt.Sprintf("builds/%d/jobs/%s/retry", number, jobID)), nil, &job)
	if err != nil {
		return nil, fmt.Errorf("retry job %s: %w", jobID, err)
	}
	return &job, nil
}

package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/altinukshini/bk-tui/internal/model"
)

// GetJobLog fetches the raw output of a job. A job that has not produced
// output yet returns an empty log.
func (c *Client) GetJobLog(ctx context.Context, pipeline string, number int, jobID string) (*model.JobLog, error) {
	var jl model.JobLog
	err := c.Get(ctx, c.pipelinePath(pipeline, fmt.Sprintf("builds/%d/jobs/%s/log", number, jobID)), &jl)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &model.JobLog{}, nil
		}
		return nil, fmt.Errorf("get log for job %s: %w", jobID, err)
	}
	return &jl, nil
}

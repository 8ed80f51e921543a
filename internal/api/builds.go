package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/altinukshini/bk-tui/internal/model"
)

type BuildsFilter struct {
	Branch      string
	State       string
	Creator     string
	CreatedFrom time.Time
	CreatedTo   time.Time
	PerPage     int
	Page        int
}

func (f BuildsFilter) QueryString() string {
	v := url.Values{}
	if f.Branch != "" {
		v.Set("branch", f.Branch)
	}
	if f.State != "" {
		v.Set("state", f.State)
	}
	if f.Creator != "" {
		v.Set("creator", f.Creator)
	}
	if !f.CreatedFrom.IsZero() {
		v.Set("created_from", f.CreatedFrom.UTC().Format(time.RFC3339))
	}
	if !f.CreatedTo.IsZero() {
		v.Set("created_to", f.CreatedTo.UTC().Format(time.RFC3339))
	}
	if f.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(f.PerPage))
	} else {
		v.Set("per_page", "30")
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if qs := v.Encode(); qs != "" {
		return "?" + qs
	}
	return ""
}

func (c *Client) ListBuilds(ctx context.Context, pipeline string, filter BuildsFilter) ([]model.Build, error) {
	var builds []model.Build
	err := c.Get(ctx, c.pipelinePath(pipeline, "builds")+filter.QueryString(), &builds)
	if err != nil {
		// Pipeline may have been deleted or renamed; treat 404 as empty
		if errors.Is(err, ErrNotFound) {
			return []model.Build{}, nil
		}
		return nil, fmt.Errorf("list builds: %w", err)
	}
	return builds, nil
}

func (c *Client) GetBuild(ctx context.Context, pipeline string, number int) (*model.Build, error) {
	var build model.Build
	err := c.Get(ctx, c.pipelinePath(pipeline, fmt.Sprintf("builds/%d", number)), &build)
	if err != nil {
		return nil, fmt.Errorf("get build %d: %w", number, err)
	}
	return &build, nil
}

func (c *Client) CreateBuild(ctx context.Context, pipeline string, req model.CreateBuild) (*model.Build, error) {
	var build model.Build
	err := c.Post(ctx, c.pipelinePath(pipeline, "builds"), req, &build)
	if err != nil {
		return nil, fmt.Errorf("create build on %s: %w", req.Branch, err)
	}
	return &build, nil
}

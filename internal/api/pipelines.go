package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/altinukshini/bk-tui/internal/model"
)

func (c *Client) ListPipelines(ctx context.Context, perPage, page int) ([]model.Pipeline, error) {
	v := url.Values{}
	if perPage > 0 {
		v.Set("per_page", strconv.Itoa(perPage))
	} else {
		v.Set("per_page", "100")
	}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}

	var pipelines []model.Pipeline
	err := c.Get(ctx, c.orgPath("pipelines?"+v.Encode()), &pipelines)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []model.Pipeline{}, nil
		}
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	return pipelines, nil
}

func (c *Client) GetPipeline(ctx context.Context, slug string) (*model.Pipeline, error) {
	var p model.Pipeline
	err := c.Get(ctx, c.pipelinePath(slug, ""), &p)
	if err != nil {
		return nil, fmt.Errorf("get pipeline %s: %w", slug, err)
	}
	return &p, nil
}

// UpdatePipelineConfiguration replaces the pipeline's YAML steps.
func (c *Client) UpdatePipelineConfiguration(ctx context.Context, slug, configuration string) (*model.Pipeline, error) {
	var p model.Pipeline
	body := model.PipelineUpdate{Configuration: &configuration}
	err := c.Patch(ctx, c.pipelinePath(slug, ""), body, &p)
	if err != nil {
		return nil, fmt.Errorf("update pipeline %s: %w", slug, err)
	}
	return &p, nil
}

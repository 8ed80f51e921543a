package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/altinukshini/bk-tui/internal/model"
)

// ListAgents returns the organization's agents. A token without agent read
// scope is reported as no agents rather than an error.
func (c *Client) ListAgents(ctx context.Context, perPage, page int) ([]model.Agent, error) {
	endpoint := c.orgPath(fmt.Sprintf("agents?per_page=%d&page=%d", perPage, page))
	var agents []model.Agent
	if err := c.Get(ctx, endpoint, &agents); err != nil {
		if errors.Is(err, ErrNotFound) || StatusCode(err) == 403 {
			return []model.Agent{}, nil
		}
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/status"
	"github.com/altinukshini/bk-tui/internal/timefmt"
)

type BuildFilter struct {
	Branch  string
	State   string // upstream state, e.g. "failed"
	Creator string
	Range   timefmt.DateRange
}

// Empty reports whether the filter matches everything.
func (f BuildFilter) Empty() bool {
	return f.Branch == "" && f.State == "" && f.Creator == "" && f.Range.IsZero()
}

// FilterBuilds keeps builds matching every set field. States are compared
// after normalization, so "cancelled" matches a filter of "canceled".
func FilterBuilds(builds []model.Build, filter BuildFilter) []model.Build {
	var matched []model.Build
	var want status.Status
	if filter.State != "" {
		want = status.Map(filter.State)
	}

	for _, b := range builds {
		if filter.Branch != "" && b.Branch != filter.Branch {
			continue
		}
		if filter.State != "" && b.Status() != want {
			continue
		}
		if filter.Creator != "" && !strings.EqualFold(b.CreatedBy(), filter.Creator) {
			continue
		}
		if !filter.Range.IsZero() && (b.CreatedAt == nil || !filter.Range.Contains(*b.CreatedAt)) {
			continue
		}
		matched = append(matched, b)
	}
	return matched
}

type BuildCanceler interface {
	CancelBuild(ctx context.Context, pipeline string, number int) (*model.Build, error)
}

type BulkResult struct {
	Completed int
	Failed    int
	Errors    []error
}

// BulkCancelBuilds cancels builds one at a time, stopping early when ctx is
// done. Requests are paced by the client's rate limiter.
func BulkCancelBuilds(ctx context.Context, client BuildCanceler, pipeline string, numbers []int, onProgress func(completed, total int)) (*BulkResult, error) {
	result := &BulkResult{}
	total := len(numbers)

	for i, n := range numbers {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		_, err := client.CancelBuild(ctx, pipeline, n)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("build %d: %w", n, err))
		} else {
			result.Completed++
		}

		if onProgress != nil {
			onProgress(i+1, total)
		}
	}

	return result, nil
}

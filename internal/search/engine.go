package search

import (
	"regexp"
	"strings"

	"github.com/altinukshini/bk-tui/internal/logs"
	"github.com/altinukshini/bk-tui/internal/model"
)

type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Search matches query against the processed lines of one job log. Line
// numbers in the result are 1-based positions in lines.
func (e *Engine) Search(jobID, jobName string, lines []logs.Line, query model.SearchQuery) *model.SearchResults {
	results := &model.SearchResults{
		Query:      query,
		TypeCounts: make(map[string]int),
	}
	if query.Pattern == "" {
		return results
	}

	matcher, err := buildMatcher(query)
	if err != nil {
		return results
	}

	for i, line := range lines {
		if query.TypeFilter != "" && string(line.Type) != query.TypeFilter {
			continue
		}
		if !matcher(line.Content) {
			continue
		}
		results.Matches = append(results.Matches, model.SearchResult{
			JobID:   jobID,
			JobName: jobName,
			Line:    i + 1,
			Content: line.Content,
			Type:    string(line.Type),
		})
		results.TypeCounts[string(line.Type)]++
		results.TotalCount++
	}

	return results
}

// Valid reports whether the query's pattern compiles.
func Valid(query model.SearchQuery) bool {
	_, err := buildMatcher(query)
	return err == nil
}

func buildMatcher(query model.SearchQuery) (func(string) bool, error) {
	if query.IsRegex {
		flags := ""
		if !query.CaseSensitive {
			flags = "(?i)"
		}
		re, err := regexp.Compile(flags + query.Pattern)
		if err != nil {
			return nil, err
		}
		return func(line string) bool { return re.MatchString(line) }, nil
	}

	pattern := query.Pattern
	if !query.CaseSensitive {
		pattern = strings.ToLower(pattern)
	}
	return func(line string) bool {
		if !query.CaseSensitive {
			line = strings.ToLower(line)
		}
		return strings.Contains(line, pattern)
	}, nil
}

// ParseQuery turns typed input into a query. A leading "/" marks the rest as
// a regular expression; a lone "/" is searched literally.
func ParseQuery(text string, typeFilter logs.Type) model.SearchQuery {
	q := model.SearchQuery{Pattern: text, TypeFilter: string(typeFilter)}
	if len(text) > 1 && strings.HasPrefix(text, "/") {
		q.Pattern = text[1:]
		q.IsRegex = true
	}
	return q
}

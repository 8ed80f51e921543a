package model

// SearchResult is one matching line of a job log.
type SearchResult struct {
	JobID   string
	JobName string
	Line    int
	Content string
	Type    string
}

type SearchQuery struct {
	Pattern       string
	IsRegex       bool
	CaseSensitive bool
	TypeFilter    string // only lines of this log type, e.g. "error"
}

type SearchResults struct {
	Query      SearchQuery
	Matches    []SearchResult
	TypeCounts map[string]int // log type -> match count
	TotalCount int
}

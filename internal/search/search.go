package search

import (
	"civicvoice/api/internal/store"
)

// Result is a single search hit returned to the caller.
type Result struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Snippet      string `json:"snippet"`
	Category     string `json:"category"`
	Status       string `json:"status"`
	Location     string `json:"location"`
	ReporterName string `json:"reporterName"`
	Votes        int    `json:"votes"`
}

// Query describes a search request.
type Query struct {
	Text     string
	Category string // empty = all categories
	Status   string // empty = all statuses
	Limit    int
	Offset   int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
	Backend string   `json:"backend"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// IssueRecord is the data we index for an issue.
type IssueRecord struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	Category     string `json:"category"`
	Status       string `json:"status"`
	ReporterName string `json:"reporterName"`
	Votes        int    `json:"votes"`
	Date         string `json:"date"`
}

// RecordFromIssue flattens an issue snapshot for indexing.
func RecordFromIssue(issue store.Issue) IssueRecord {
	return IssueRecord{
		ID:           issue.ID,
		Title:        issue.Title,
		Description:  issue.Description,
		Location:     issue.Location,
		Category:     string(issue.Category),
		Status:       string(issue.Status),
		ReporterName: issue.ReporterName,
		Votes:        issue.Votes,
		Date:         issue.ReportedOn.Format(store.DateLayout),
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

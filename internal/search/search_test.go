package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"civicvoice/api/internal/store"
)

func issueSource(issues ...store.Issue) IssueSource {
	return func(context.Context) ([]store.Issue, error) {
		return issues, nil
	}
}

func sampleIssues() []store.Issue {
	return []store.Issue{
		{ID: 1, Title: "Deep Pothole on MG Road", Category: store.CategoryRoads, Status: store.StatusOpen, Votes: 45, Description: "A large pothole near the junction.", Location: "MG Road, Bangalore"},
		{ID: 3, Title: "Broken streetlights on highway", Category: store.CategoryLighting, Status: store.StatusOpen, Votes: 32, Description: "Dark stretch near the road to the station.", Location: "Vikhroli, Mumbai"},
		{ID: 8, Title: "Encroachment on footpath", Category: store.CategoryOther, Status: store.StatusOpen, Votes: 15, Description: "Vendors block the footpath on the busy road.", Location: "Commercial Street, Bangalore"},
	}
}

func TestMemorySearchMatchesAllTerms(t *testing.T) {
	m := NewMemory(issueSource(sampleIssues()...))

	results, total, err := m.Search(Query{Text: "road BANGALORE"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 2 || len(results) != 2 {
		t.Fatalf("Search() total = %d, results = %+v", total, results)
	}
	if results[0].ID != 1 || results[1].ID != 8 {
		t.Fatalf("expected title match first, got %d then %d", results[0].ID, results[1].ID)
	}
}

func TestMemorySearchFiltersAndPaging(t *testing.T) {
	m := NewMemory(issueSource(sampleIssues()...))

	results, total, err := m.Search(Query{Text: "road", Category: "lighting"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 1 || results[0].ID != 3 {
		t.Fatalf("category filter = %+v", results)
	}

	results, total, err = m.Search(Query{Text: "road", Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 3 || len(results) != 1 || results[0].ID != 3 {
		t.Fatalf("paged search = total %d, %+v", total, results)
	}

	results, _, _ = m.Search(Query{Text: "road", Offset: 10})
	if len(results) != 0 {
		t.Fatalf("offset past end should be empty, got %+v", results)
	}
}

func TestMemorySearchBlankQuery(t *testing.T) {
	m := NewMemory(issueSource(sampleIssues()...))
	results, total, err := m.Search(Query{Text: "   "})
	if err != nil || total != 0 || len(results) != 0 {
		t.Fatalf("blank query = %+v, %d, %v", results, total, err)
	}
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("water ", 60)
	got := snippet(long)
	if !strings.HasSuffix(got, "…") || len([]rune(got)) > snippetRunes+1 {
		t.Fatalf("snippet() = %q", got)
	}
}

type failingSearcher struct{}

func (failingSearcher) Search(Query) ([]Result, int, error) { return nil, 0, errors.New("boom") }
func (failingSearcher) Healthy() bool                       { return true }

func TestServiceFallsBackWithoutMeili(t *testing.T) {
	svc := NewService(nil, NewMemory(issueSource(sampleIssues()...)))
	resp := svc.Search(Query{Text: " footpath "})
	if resp.Backend != "memory" || resp.Total != 1 || resp.Query != "footpath" {
		t.Fatalf("Search() = %+v", resp)
	}

	failing := NewService(nil, failingSearcher{})
	resp = failing.Search(Query{Text: "x"})
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Fatalf("failed search should return an empty, non-nil result list: %+v", resp)
	}

	// No Meilisearch: indexing is a no-op.
	svc.IndexIssue(RecordFromIssue(sampleIssues()[0]))
	svc.ReindexAll(nil)
	svc.Close()
}

func TestRecordFromIssue(t *testing.T) {
	issue := sampleIssues()[0]
	issue.ReporterName = "Rajesh Kumar"
	record := RecordFromIssue(issue)
	if record.ID != 1 || record.Category != "Roads" || record.ReporterName != "Rajesh Kumar" {
		t.Fatalf("RecordFromIssue() = %+v", record)
	}
}

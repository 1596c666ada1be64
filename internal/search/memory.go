package search

import (
	"context"
	"strings"

	"civicvoice/api/internal/store"
	"golang.org/x/text/cases"
)

const snippetRunes = 160

// IssueSource returns the current issue snapshots.
type IssueSource func(ctx context.Context) ([]store.Issue, error)

// Memory implements Searcher by scanning the live issue list. It is the
// fallback when Meilisearch is not configured or unhealthy.
type Memory struct {
	source IssueSource
}

func NewMemory(source IssueSource) *Memory {
	return &Memory{source: source}
}

// Healthy always returns true; the source is in process.
func (m *Memory) Healthy() bool {
	return true
}

// Search matches issues containing every query term in their title,
// description, location or category, ranked by the number of title hits and
// then by votes.
func (m *Memory) Search(q Query) ([]Result, int, error) {
	terms := strings.Fields(cases.Fold().String(q.Text))
	if len(terms) == 0 {
		return nil, 0, nil
	}

	issues, err := m.source(context.Background())
	if err != nil {
		return nil, 0, err
	}

	type scored struct {
		result Result
		score  int
	}
	var matches []scored
	for _, issue := range issues {
		if q.Category != "" && !strings.EqualFold(string(issue.Category), q.Category) {
			continue
		}
		if q.Status != "" && !strings.EqualFold(string(issue.Status), q.Status) {
			continue
		}
		title := cases.Fold().String(issue.Title)
		haystack := strings.Join([]string{
			title,
			cases.Fold().String(issue.Description),
			cases.Fold().String(issue.Location),
			cases.Fold().String(string(issue.Category)),
		}, "\n")

		score := 0
		matched := true
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				matched = false
				break
			}
			if strings.Contains(title, term) {
				score++
			}
		}
		if !matched {
			continue
		}
		matches = append(matches, scored{
			result: Result{
				ID:           issue.ID,
				Title:        issue.Title,
				Snippet:      snippet(issue.Description),
				Category:     string(issue.Category),
				Status:       string(issue.Status),
				Location:     issue.Location,
				ReporterName: issue.ReporterName,
				Votes:        issue.Votes,
			},
			score: score,
		})
	}

	// Insertion sort keeps equal scores in listing order.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && better(matches[j].score, matches[j].result.Votes, matches[j-1].score, matches[j-1].result.Votes); j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}

	total := len(matches)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + normalizeLimit(q.Limit)
	if end > total {
		end = total
	}

	results := make([]Result, 0, end-offset)
	for _, match := range matches[offset:end] {
		results = append(results, match.result)
	}
	return results, total, nil
}

func better(scoreA, votesA, scoreB, votesB int) bool {
	if scoreA != scoreB {
		return scoreA > scoreB
	}
	return votesA > votesB
}

func snippet(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= snippetRunes {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:snippetRunes])) + "…"
}

// Package views computes presentation data from issue snapshots. Every
// function is pure: it never mutates its input and keeps no state between
// calls.
package views

import (
	"math"
	"sort"
	"strings"

	"civicvoice/api/internal/store"
)

// AllCategories is the category filter value that keeps every issue.
const AllCategories = "All"

type SortKey string

const (
	SortByVotes SortKey = "votes"
	SortByDate  SortKey = "date"
)

// Filter selects and orders an issue listing. Empty fields mean no
// restriction; an empty or unknown Sort keeps input order.
type Filter struct {
	Category store.Category
	Status   store.Status
	Sort     SortKey
}

// ParseFilter validates raw query values. "All" and "" disable the category
// filter.
func ParseFilter(category, status, sortKey string) (Filter, error) {
	var filter Filter
	if trimmed := strings.TrimSpace(category); trimmed != "" && !strings.EqualFold(trimmed, AllCategories) {
		parsed, err := store.ParseCategory(trimmed)
		if err != nil {
			return Filter{}, err
		}
		filter.Category = parsed
	}
	if strings.TrimSpace(status) != "" {
		parsed, err := store.ParseStatus(status)
		if err != nil {
			return Filter{}, err
		}
		filter.Status = parsed
	}
	switch SortKey(strings.ToLower(strings.TrimSpace(sortKey))) {
	case SortByVotes:
		filter.Sort = SortByVotes
	case SortByDate:
		filter.Sort = SortByDate
	}
	return filter, nil
}

// FilterAndSort returns a new slice holding the matching issues in sort
// order. Ties keep their input order.
func FilterAndSort(issues []store.Issue, filter Filter) []store.Issue {
	out := make([]store.Issue, 0, len(issues))
	for _, issue := range issues {
		if filter.Category != "" && issue.Category != filter.Category {
			continue
		}
		if filter.Status != "" && issue.Status != filter.Status {
			continue
		}
		out = append(out, issue)
	}

	switch filter.Sort {
	case SortByVotes:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Votes > out[j].Votes })
	case SortByDate:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ReportedOn.After(out[j].ReportedOn) })
	}
	return out
}

type LeaderboardEntry struct {
	ReporterID     string `json:"reporterId"`
	Name           string `json:"name"`
	IssuesReported int    `json:"issuesReported"`
	TotalVotes     int    `json:"totalVotes"`
	ResolvedCount  int    `json:"resolvedCount"`
}

// Leaderboard ranks reporters by number of issues in the input, most first.
// Reporters are grouped by id and listed in first-appearance order on ties.
func Leaderboard(issues []store.Issue) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0)
	index := make(map[string]int)
	for _, issue := range issues {
		key := reporterKey(issue)
		pos, ok := index[key]
		if !ok {
			pos = len(entries)
			index[key] = pos
			entries = append(entries, LeaderboardEntry{ReporterID: issue.ReporterID, Name: issue.ReporterName})
		}
		entry := &entries[pos]
		entry.IssuesReported++
		entry.TotalVotes += issue.Votes
		if issue.Status == store.StatusResolved {
			entry.ResolvedCount++
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].IssuesReported > entries[j].IssuesReported
	})
	return entries
}

func reporterKey(issue store.Issue) string {
	if issue.ReporterID != "" {
		return "id:" + issue.ReporterID
	}
	return "name:" + issue.ReporterName
}

// RoundPercent returns part/whole as a whole percentage rounded half up. A
// zero whole is treated as one.
func RoundPercent(part, whole int) int {
	if whole <= 0 {
		whole = 1
	}
	return int(math.Round(float64(part) * 100 / float64(whole)))
}

// RoundRatio returns part/whole rounded half up, with a zero whole treated as
// one.
func RoundRatio(part, whole int) int {
	if whole <= 0 {
		whole = 1
	}
	return int(math.Round(float64(part) / float64(whole)))
}

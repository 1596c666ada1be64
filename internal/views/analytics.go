package views

import (
	"strings"

	"civicvoice/api/internal/store"
)

const topN = 5

type StatusCount struct {
	Status  store.Status `json:"status"`
	Count   int          `json:"count"`
	Percent int          `json:"percent"`
}

type CategoryCount struct {
	Category store.Category `json:"category"`
	Count    int            `json:"count"`
}

type IssueSummary struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	Category     store.Category `json:"category"`
	Status       store.Status   `json:"status"`
	Votes        int            `json:"votes"`
	Date         string         `json:"date"`
	ReporterName string         `json:"reporterName"`
}

type Analytics struct {
	Total             int             `json:"total"`
	ByStatus          []StatusCount   `json:"byStatus"`
	ByCategory        []CategoryCount `json:"byCategory"`
	MaxCategoryCount  int             `json:"maxCategoryCount"`
	ResolvedCount     int             `json:"resolvedCount"`
	ResolutionRate    int             `json:"resolutionRate"`
	TopVoted          []IssueSummary  `json:"topVoted"`
	MostRecent        []IssueSummary  `json:"mostRecent"`
	DistinctReporters int             `json:"distinctReporters"`
	DistinctLocations int             `json:"distinctLocations"`
	DistinctCities    int             `json:"distinctCities"`
	TotalVotes        int             `json:"totalVotes"`
	AverageVotes      int             `json:"averageVotes"`
}

// ComputeAnalytics aggregates the dashboard numbers for issues.
func ComputeAnalytics(issues []store.Issue) Analytics {
	out := Analytics{Total: len(issues)}

	statusCounts := make(map[store.Status]int, len(store.Statuses))
	categoryCounts := make(map[store.Category]int, len(store.Categories))
	reporters := make(map[string]struct{})
	locations := make(map[string]struct{})
	cities := make(map[string]struct{})

	for _, issue := range issues {
		statusCounts[issue.Status]++
		categoryCounts[issue.Category]++
		out.TotalVotes += issue.Votes
		reporters[reporterKey(issue)] = struct{}{}
		locations[LocationArea(issue.Location)] = struct{}{}
		cities[LocationCity(issue.Location)] = struct{}{}
	}

	out.ByStatus = make([]StatusCount, 0, len(store.Statuses))
	for _, status := range store.Statuses {
		out.ByStatus = append(out.ByStatus, StatusCount{
			Status:  status,
			Count:   statusCounts[status],
			Percent: RoundPercent(statusCounts[status], out.Total),
		})
	}

	out.MaxCategoryCount = 1
	out.ByCategory = make([]CategoryCount, 0, len(store.Categories))
	for _, category := range store.Categories {
		count := categoryCounts[category]
		out.ByCategory = append(out.ByCategory, CategoryCount{Category: category, Count: count})
		if count > out.MaxCategoryCount {
			out.MaxCategoryCount = count
		}
	}

	out.ResolvedCount = statusCounts[store.StatusResolved]
	out.ResolutionRate = RoundPercent(out.ResolvedCount, out.Total)
	out.TopVoted = summarize(FilterAndSort(issues, Filter{Sort: SortByVotes}), topN)
	out.MostRecent = summarize(FilterAndSort(issues, Filter{Sort: SortByDate}), topN)
	out.DistinctReporters = len(reporters)
	out.DistinctLocations = len(locations)
	out.DistinctCities = len(cities)
	out.AverageVotes = RoundRatio(out.TotalVotes, out.Total)
	return out
}

// LocationArea is the first comma-separated segment of a free-text location.
func LocationArea(location string) string {
	head, _, _ := strings.Cut(location, ",")
	return strings.TrimSpace(head)
}

// LocationCity is the last comma-separated segment of a free-text location.
func LocationCity(location string) string {
	if i := strings.LastIndex(location, ","); i >= 0 {
		return strings.TrimSpace(location[i+1:])
	}
	return strings.TrimSpace(location)
}

func summarize(issues []store.Issue, limit int) []IssueSummary {
	if len(issues) > limit {
		issues = issues[:limit]
	}
	out := make([]IssueSummary, 0, len(issues))
	for _, issue := range issues {
		out = append(out, Summary(issue))
	}
	return out
}

func Summary(issue store.Issue) IssueSummary {
	return IssueSummary{
		ID:           issue.ID,
		Title:        issue.Title,
		Category:     issue.Category,
		Status:       issue.Status,
		Votes:        issue.Votes,
		Date:         issue.ReportedOn.Format(store.DateLayout),
		ReporterName: issue.ReporterName,
	}
}

type MapMarker struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	Category     store.Category `json:"category"`
	Status       store.Status   `json:"status"`
	Lat          float64        `json:"lat"`
	Lng          float64        `json:"lng"`
	Votes        int            `json:"votes"`
	Date         string         `json:"date"`
	ReporterName string         `json:"reporterName"`
}

type MapView struct {
	Markers []MapMarker          `json:"markers"`
	Cities  int                  `json:"cities"`
	Counts  map[store.Status]int `json:"counts"`
}

// MapMarkers returns a marker for every issue that carries coordinates, in
// input order, plus the summary counts shown beside the map.
func MapMarkers(issues []store.Issue) MapView {
	view := MapView{
		Markers: make([]MapMarker, 0, len(issues)),
		Counts:  make(map[store.Status]int, len(store.Statuses)),
	}
	for _, status := range store.Statuses {
		view.Counts[status] = 0
	}
	cities := make(map[string]struct{})
	for _, issue := range issues {
		view.Counts[issue.Status]++
		cities[LocationCity(issue.Location)] = struct{}{}
		if issue.Coordinates == nil {
			continue
		}
		view.Markers = append(view.Markers, MapMarker{
			ID:           issue.ID,
			Title:        issue.Title,
			Category:     issue.Category,
			Status:       issue.Status,
			Lat:          issue.Coordinates.Lat,
			Lng:          issue.Coordinates.Lng,
			Votes:        issue.Votes,
			Date:         issue.ReportedOn.Format(store.DateLayout),
			ReporterName: issue.ReporterName,
		})
	}
	view.Cities = len(cities)
	return view
}

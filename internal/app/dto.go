package app

import (
	"time"

	"civicvoice/api/internal/store"
)

type coordinatesJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type govResponseJSON struct {
	Department          string `json:"department"`
	Official            string `json:"official"`
	Response            string `json:"response"`
	EstimatedResolution string `json:"estimatedResolution,omitempty"`
	LastUpdated         string `json:"lastUpdated"`
}

type issueJSON struct {
	ID                int64            `json:"id"`
	Title             string           `json:"title"`
	Category          store.Category   `json:"category"`
	Status            store.Status     `json:"status"`
	Votes             int              `json:"votes"`
	Description       string           `json:"description"`
	Location          string           `json:"location"`
	Date              string           `json:"date"`
	ReporterID        string           `json:"reporterId,omitempty"`
	ReporterName      string           `json:"reporterName"`
	Verifications     int              `json:"verifications"`
	CommunityVerified bool             `json:"communityVerified"`
	Images            []string         `json:"images"`
	Coordinates       *coordinatesJSON `json:"coordinates,omitempty"`
	GovResponse       *govResponseJSON `json:"govResponse,omitempty"`
}

func toIssueJSON(issue store.Issue) issueJSON {
	out := issueJSON{
		ID:                issue.ID,
		Title:             issue.Title,
		Category:          issue.Category,
		Status:            issue.Status,
		Votes:             issue.Votes,
		Description:       issue.Description,
		Location:          issue.Location,
		Date:              issue.ReportedOn.Format(store.DateLayout),
		ReporterID:        issue.ReporterID,
		ReporterName:      issue.ReporterName,
		Verifications:     issue.Verifications,
		CommunityVerified: issue.CommunityVerified(),
		Images:            issue.Images,
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	if issue.Coordinates != nil {
		out.Coordinates = &coordinatesJSON{Lat: issue.Coordinates.Lat, Lng: issue.Coordinates.Lng}
	}
	if gov := issue.GovResponse; gov != nil {
		out.GovResponse = &govResponseJSON{
			Department:          gov.Department,
			Official:            gov.Official,
			Response:            gov.Response,
			EstimatedResolution: gov.EstimatedResolution,
			LastUpdated:         gov.LastUpdated.Format(store.DateLayout),
		}
	}
	return out
}

func toIssueList(issues []store.Issue) []issueJSON {
	out := make([]issueJSON, 0, len(issues))
	for _, issue := range issues {
		out = append(out, toIssueJSON(issue))
	}
	return out
}

type commentJSON struct {
	ID        int64  `json:"id"`
	IssueID   int64  `json:"issueId"`
	AuthorID  string `json:"authorId"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

func toCommentJSON(comment store.Comment) commentJSON {
	return commentJSON{
		ID:        comment.ID,
		IssueID:   comment.IssueID,
		AuthorID:  comment.AuthorID,
		Author:    comment.AuthorName,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toCommentList(comments []store.Comment) []commentJSON {
	out := make([]commentJSON, 0, len(comments))
	for _, comment := range comments {
		out = append(out, toCommentJSON(comment))
	}
	return out
}

type profileJSON struct {
	UserID         string   `json:"userId"`
	Name           string   `json:"name"`
	Badges         []string `json:"badges"`
	Points         int      `json:"points"`
	IssuesReported int      `json:"issuesReported"`
}

func toProfileJSON(profile store.Profile) profileJSON {
	badges := profile.Badges
	if badges == nil {
		badges = []string{}
	}
	return profileJSON{
		UserID:         profile.UserID,
		Name:           profile.DisplayName,
		Badges:         badges,
		Points:         profile.Points,
		IssuesReported: profile.IssuesReported,
	}
}

type userJSON struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"isAdmin"`
}

func toUserJSON(identity store.Identity) userJSON {
	return userJSON{
		ID:       identity.UserID,
		Username: identity.Username,
		Name:     identity.DisplayName,
		IsAdmin:  identity.IsAdmin,
	}
}

type auditEventJSON struct {
	ID         int64             `json:"id"`
	Type       string            `json:"type"`
	ActorID    string            `json:"actorId,omitempty"`
	ActorName  string            `json:"actorName,omitempty"`
	IssueID    int64             `json:"issueId,omitempty"`
	Detail     map[string]string `json:"detail,omitempty"`
	OccurredAt string            `json:"occurredAt"`
}

func toAuditEventJSON(event store.AuditEvent) auditEventJSON {
	return auditEventJSON{
		ID:         event.ID,
		Type:       event.Type,
		ActorID:    event.ActorID,
		ActorName:  event.ActorName,
		IssueID:    event.IssueID,
		Detail:     event.Detail,
		OccurredAt: event.OccurredAt.UTC().Format(time.RFC3339),
	}
}

func sessionPayload(sess Session) map[string]any {
	payload := map[string]any{
		"authenticated": true,
		"user": userJSON{
			ID:       sess.UserID,
			Username: sess.Username,
			Name:     sess.DisplayName,
			IsAdmin:  sess.IsAdmin,
		},
		"role":      sess.Role,
		"section":   sess.Section,
		"expiresAt": sess.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if sess.Token != "" && sess.RefreshToken != "" {
		payload["token"] = sess.Token
		payload["refreshToken"] = sess.RefreshToken
	}
	return payload
}

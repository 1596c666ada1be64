package client

import (
	"time"

	"civicvoice/api/internal/search"
	"civicvoice/api/internal/views"
)

// The read-model views already carry their wire tags, so they are shared
// with the server rather than redeclared.
type (
	Analytics        = views.Analytics
	LeaderboardEntry = views.LeaderboardEntry
	SearchResponse   = search.Response
)

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Session is the payload of login, register, refresh and session lookups.
// Token fields are empty on lookups.
type Session struct {
	Authenticated bool   `json:"authenticated"`
	User          *User  `json:"user"`
	Role          string `json:"role"`
	Section       string `json:"section"`
	ExpiresAt     string `json:"expiresAt"`
	Token         string `json:"token"`
	RefreshToken  string `json:"refreshToken"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type GovResponse struct {
	Department          string `json:"department"`
	Official            string `json:"official"`
	Response            string `json:"response"`
	EstimatedResolution string `json:"estimatedResolution,omitempty"`
	LastUpdated         string `json:"lastUpdated"`
}

type Issue struct {
	ID                int64        `json:"id"`
	Title             string       `json:"title"`
	Category          string       `json:"category"`
	Status            string       `json:"status"`
	Votes             int          `json:"votes"`
	Description       string       `json:"description"`
	Location          string       `json:"location"`
	Date              string       `json:"date"`
	ReporterID        string       `json:"reporterId"`
	ReporterName      string       `json:"reporterName"`
	Verifications     int          `json:"verifications"`
	CommunityVerified bool         `json:"communityVerified"`
	Images            []string     `json:"images"`
	Coordinates       *Coordinates `json:"coordinates,omitempty"`
	GovResponse       *GovResponse `json:"govResponse,omitempty"`
}

type Comment struct {
	ID        int64  `json:"id"`
	IssueID   int64  `json:"issueId"`
	AuthorID  string `json:"authorId"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type IssueDetail struct {
	Issue        Issue     `json:"issue"`
	Comments     []Comment `json:"comments"`
	VerifiedByMe bool      `json:"verifiedByMe"`
}

type VerifyResult struct {
	Issue        Issue `json:"issue"`
	Changed      bool  `json:"changed"`
	VerifiedByMe bool  `json:"verifiedByMe"`
}

// NewIssue is the submission body for POST /api/issues.
type NewIssue struct {
	Title       string       `json:"title"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Location    string       `json:"location"`
	Images      []string     `json:"images,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// ListFilter narrows GET /api/issues. Sort is "votes", "date" or empty.
type ListFilter struct {
	Category string
	Status   string
	Sort     string
}

type Profile struct {
	UserID         string   `json:"userId"`
	Name           string   `json:"name"`
	Badges         []string `json:"badges"`
	Points         int      `json:"points"`
	IssuesReported int      `json:"issuesReported"`
}

type AuditEvent struct {
	ID         int64             `json:"id"`
	Type       string            `json:"type"`
	ActorID    string            `json:"actorId"`
	ActorName  string            `json:"actorName"`
	IssueID    int64             `json:"issueId"`
	Detail     map[string]string `json:"detail"`
	OccurredAt string            `json:"occurredAt"`
}

type ChatMessage struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type Chat struct {
	ID       string        `json:"id"`
	Messages []ChatMessage `json:"messages"`
	Pending  int           `json:"pending"`
}

// Package session stores logged-in sessions: who is signed in, the hash of
// their refresh token and the section they are looking at.
package session

import (
	"context"
	"strings"
	"time"

	"civicvoice/api/internal/store"
)

type Section string

const (
	SectionIssues      Section = "issues"
	SectionMap         Section = "map"
	SectionAnalytics   Section = "analytics"
	SectionLeaderboard Section = "leaderboard"
	SectionAbout       Section = "about"
	SectionUsers       Section = "users"
)

// DefaultSection is where every new session starts.
const DefaultSection = SectionIssues

var Sections = []Section{
	SectionIssues,
	SectionMap,
	SectionAnalytics,
	SectionLeaderboard,
	SectionAbout,
	SectionUsers,
}

var (
	ErrNotFound       = &store.Error{Kind: store.KindAuth, Code: "SESSION_NOT_FOUND", Message: "session not found or expired"}
	ErrInvalidSection = &store.Error{Kind: store.KindValidation, Code: "INVALID_SECTION", Message: "unknown section"}
	ErrAdminSection   = &store.Error{Kind: store.KindPolicy, Code: "ADMIN_SECTION", Message: "section requires an admin"}
)

func ParseSection(value string) (Section, error) {
	normalized := Section(strings.ToLower(strings.TrimSpace(value)))
	for _, section := range Sections {
		if section == normalized {
			return section, nil
		}
	}
	return "", ErrInvalidSection
}

// Data holds the state stored for each session
type Data struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	IsAdmin     bool      `json:"is_admin"`
	Section     Section   `json:"section"`
	RefreshHash string    `json:"refresh_hash"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (d Data) Identity() store.Identity {
	return store.Identity{
		UserID:      d.UserID,
		Username:    d.Username,
		DisplayName: d.DisplayName,
		IsAdmin:     d.IsAdmin,
	}
}

// Store is implemented by RedisStore and MemoryStore.
type Store interface {
	Save(ctx context.Context, data Data) error
	Get(ctx context.Context, id string) (Data, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

func ttlUntil(expiresAt, now time.Time) time.Duration {
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return ttl
}

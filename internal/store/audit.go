package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Audit event types.
const (
	AuditIssueSubmitted  = "issue.submitted"
	AuditIssueVoted      = "issue.voted"
	AuditIssueStatus     = "issue.status_changed"
	AuditIssueVerified   = "issue.verified"
	AuditCommentAdded    = "comment.added"
	AuditUserRegistered  = "user.registered"
	AuditUserDeleted     = "user.deleted"
	AuditSessionLoggedIn = "session.login"
)

type AuditEvent struct {
	ID         int64
	Type       string
	ActorID    string
	ActorName  string
	IssueID    int64
	Detail     map[string]string
	OccurredAt time.Time
}

// AuditLog is an append-only Postgres record of state changes. It is written
// to, never replayed into the in-memory store.
type AuditLog struct {
	db *sql.DB
}

func NewAuditLog(db *sql.DB) *AuditLog {
	return &AuditLog{db: db}
}

func (a *AuditLog) Record(ctx context.Context, event AuditEvent) error {
	detail := event.Detail
	if detail == nil {
		detail = map[string]string{}
	}
	encoded, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}
	var issueID sql.NullInt64
	if event.IssueID > 0 {
		issueID = sql.NullInt64{Int64: event.IssueID, Valid: true}
	}
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO audit_events (event_type, actor_id, actor_name, issue_id, detail)
		VALUES ($1, $2, $3, $4, $5::jsonb)
	`, event.Type, event.ActorID, event.ActorName, issueID, string(encoded))
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Recent returns the newest events first.
func (a *AuditLog) Recent(ctx context.Context, limit int) ([]AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, event_type, actor_id, actor_name, issue_id, detail, occurred_at
		FROM audit_events
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	items := make([]AuditEvent, 0)
	for rows.Next() {
		var item AuditEvent
		var issueID sql.NullInt64
		var detailRaw []byte
		if err := rows.Scan(
			&item.ID,
			&item.Type,
			&item.ActorID,
			&item.ActorName,
			&issueID,
			&detailRaw,
			&item.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if issueID.Valid {
			item.IssueID = issueID.Int64
		}
		detail, err := decodeDetail(detailRaw)
		if err != nil {
			return nil, fmt.Errorf("decode detail of audit event %d: %w", item.ID, err)
		}
		item.Detail = detail
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return items, nil
}

// decodeDetail reads the detail column. Values that are not strings are
// rejected rather than dropped.
func decodeDetail(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var detail map[string]string
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, err
	}
	return detail, nil
}

func (a *AuditLog) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *AuditLog) Close() error {
	return a.db.Close()
}

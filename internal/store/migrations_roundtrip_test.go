package store

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func openTestDatabase(t *testing.T) *sql.DB {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("CIVIC_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("CIVIC_TEST_DATABASE_URL is not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrationsRoundTripPostgres(t *testing.T) {
	db := openTestDatabase(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}
	if err := resetPublicSchema(ctx, db); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	if err := ApplyMigrations(ctx, db, Migrations()); err != nil {
		t.Fatalf("apply up migrations (pass 1): %v", err)
	}
	if err := applyDownMigrations(ctx, db, Migrations()); err != nil {
		t.Fatalf("apply down migrations: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM schema_migrations`); err != nil {
		t.Fatalf("clear schema_migrations: %v", err)
	}
	if err := ApplyMigrations(ctx, db, Migrations()); err != nil {
		t.Fatalf("apply up migrations (pass 2): %v", err)
	}
}

func TestAuditLogRecordsAndBlocksUpdates(t *testing.T) {
	db := openTestDatabase(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := resetPublicSchema(ctx, db); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := ApplyMigrations(ctx, db, Migrations()); err != nil {
		t.Fatalf("ApplyMigrations() error = %v", err)
	}

	audit := NewAuditLog(db)
	if err := audit.Record(ctx, AuditEvent{
		Type:      AuditIssueVerified,
		ActorID:   "usr_priya",
		ActorName: "Priya Sharma",
		IssueID:   1,
		Detail:    map[string]string{"verifications": "13"},
	}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	events, err := audit.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(events) != 1 || events[0].IssueID != 1 || events[0].Detail["verifications"] != "13" {
		t.Fatalf("Recent() = %+v", events)
	}

	if _, err := db.ExecContext(ctx, `INSERT INTO audit_events (event_type, detail) VALUES ('issue.voted', '{"votes": 16}')`); err != nil {
		t.Fatalf("insert raw event: %v", err)
	}
	if _, err := audit.Recent(ctx, 10); err == nil || !strings.Contains(err.Error(), "decode detail") {
		t.Fatalf("Recent() error = %v, want a detail decode error", err)
	}

	_, err = db.ExecContext(ctx, `UPDATE audit_events SET actor_name = 'someone else'`)
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		t.Fatalf("expected postgres error from UPDATE, got %v", err)
	}
	if pgErr.SQLState() != "55000" {
		t.Fatalf("SQLSTATE = %s, want 55000", pgErr.SQLState())
	}
}

func resetPublicSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`)
	return err
}

func applyDownMigrations(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	downs, err := migrationFiles(fsys, ".down.sql")
	if err != nil {
		return err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(downs)))

	for _, name := range downs {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		sqlText := strings.TrimSpace(string(raw))
		if sqlText == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, sqlText); err != nil {
			return err
		}
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenAudit connects to Postgres, applies the audit migrations from fsys and
// returns a ready AuditLog. fsys defaults to the embedded migrations.
func OpenAudit(ctx context.Context, databaseURL string, fsys fs.FS) (*AuditLog, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(8)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if fsys == nil {
		fsys = Migrations()
	}
	if err := ApplyMigrations(ctx, db, fsys); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewAuditLog(db), nil
}

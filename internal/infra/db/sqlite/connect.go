package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Memory opens a private in-memory database.
const Memory = ":memory:"

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Connect opens the database file at path, creating it and its schema when
// missing. SQLite allows a single writer, so the pool holds one connection;
// this also keeps a Memory database alive for the life of the pool.
func Connect(ctx context.Context, path string) (*sql.DB, error) {
	dsn := Memory
	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path + "?mode=rwc&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if path != Memory {
		db.SetConnMaxLifetime(time.Hour)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS report_analyses (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	report_text TEXT NOT NULL,
	report_type TEXT NOT NULL,
	risk_level TEXT NOT NULL,
	result_json TEXT NOT NULL,
	image_url TEXT NOT NULL DEFAULT '',
	degraded INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_report_analyses_tenant ON report_analyses(tenant_id, created_at);

CREATE TABLE IF NOT EXISTS report_stage_errors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant_id TEXT NOT NULL,
	analysis_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	message TEXT NOT NULL,
	details_json TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_report_stage_errors_analysis ON report_stage_errors(tenant_id, analysis_id);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at %q: %w", s, err)
	}
	return t, nil
}

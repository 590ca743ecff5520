package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
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
  result_json JSONB NOT NULL,
  image_url TEXT NOT NULL DEFAULT '',
  degraded BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_report_analyses_tenant ON report_analyses(tenant_id, created_at);

CREATE TABLE IF NOT EXISTS report_stage_errors (
  id BIGSERIAL PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  analysis_id TEXT NOT NULL,
  stage TEXT NOT NULL,
  message TEXT NOT NULL,
  details_json JSONB NOT NULL DEFAULT '{}',
  created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_report_stage_errors_analysis ON report_stage_errors(tenant_id, analysis_id);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

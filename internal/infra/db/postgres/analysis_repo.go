package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/bryanwahyu/medreport-ai/internal/domain/analysis"
	"github.com/bryanwahyu/medreport-ai/internal/infra/db/column"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const analysisColumns = `id, tenant_id, report_text, report_type, risk_level, result_json, image_url, degraded, created_at`

// Save inserts or updates an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO report_analyses
  (` + analysisColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  report_type=EXCLUDED.report_type,
  risk_level=EXCLUDED.risk_level,
  result_json=EXCLUDED.result_json,
  image_url=EXCLUDED.image_url,
  degraded=EXCLUDED.degraded;
`
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		string(a.ID), column.OrDash(a.TenantID), a.ReportText, column.OrDash(a.ReportType), column.OrDash(a.RiskLevel),
		column.JSONObject(a.Result), a.ImageURL, a.Degraded, createdAt,
	)
	return err
}

func (r *AnalysisRepository) Get(ctx context.Context, tenant string, id domain.ID) (*domain.Record, error) {
	const q = `SELECT ` + analysisColumns + ` FROM report_analyses WHERE tenant_id=$1 AND id=$2;`
	a, err := scanRecord(r.db.QueryRowContext(ctx, q, tenant, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT ` + analysisColumns + `
FROM report_analyses
WHERE tenant_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		a, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnalysisRepository) Delete(ctx context.Context, tenant string, id domain.ID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM report_analyses WHERE tenant_id=$1 AND id=$2`, tenant, string(id))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var a domain.Record
	var id string
	if err := row.Scan(&id, &a.TenantID, &a.ReportText, &a.ReportType, &a.RiskLevel,
		&a.Result, &a.ImageURL, &a.Degraded, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ID = domain.ID(id)
	return &a, nil
}

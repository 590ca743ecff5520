package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	domain "github.com/bryanwahyu/medreport-ai/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save inserts or replaces an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO report_analyses
  (id, tenant_id, report_text, report_type, risk_level, result_json, image_url, degraded, created_at)
VALUES (?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  report_type=excluded.report_type, risk_level=excluded.risk_level,
  result_json=excluded.result_json, image_url=excluded.image_url, degraded=excluded.degraded;
`
	result := a.Result
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	_, err := r.db.ExecContext(ctx, q,
		string(a.ID), a.TenantID, a.ReportText, a.ReportType, a.RiskLevel,
		result, a.ImageURL, a.Degraded, formatTime(a.CreatedAt),
	)
	return err
}

func (r *AnalysisRepository) Get(ctx context.Context, tenant string, id domain.ID) (*domain.Record, error) {
	const q = `
SELECT id, tenant_id, report_text, report_type, risk_level, result_json, image_url, degraded, created_at
FROM report_analyses
WHERE tenant_id=? AND id=?;`
	a, err := scanRecord(r.db.QueryRowContext(ctx, q, tenant, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// Paginate returns a page of analyses ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	const q = `
SELECT id, tenant_id, report_text, report_type, risk_level, result_json, image_url, degraded, created_at
FROM report_analyses
WHERE tenant_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, (page-1)*pageSize)
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM report_analyses WHERE tenant_id=? AND id=?`, tenant, string(id))
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
	var id, created string
	if err := row.Scan(&id, &a.TenantID, &a.ReportText, &a.ReportType, &a.RiskLevel,
		&a.Result, &a.ImageURL, &a.Degraded, &created); err != nil {
		return nil, err
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	a.ID = domain.ID(id)
	a.CreatedAt = t
	return &a, nil
}

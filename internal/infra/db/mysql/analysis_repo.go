package mysql

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

// Save inserts an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO report_analyses
  (` + analysisColumns + `)
VALUES (?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  report_type=VALUES(report_type), risk_level=VALUES(risk_level), result_json=VALUES(result_json),
  image_url=VALUES(image_url), degraded=VALUES(degraded);
`
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		string(a.ID), column.OrDash(a.TenantID), a.ReportText, column.OrDash(a.ReportType), column.OrDash(a.RiskLevel),
		column.JSONObject(a.Result), a.ImageURL, a.Degraded, createdAt.UTC(),
	)
	return err
}

func (r *AnalysisRepository) Get(ctx context.Context, tenant string, id domain.ID) (*domain.Record, error) {
	const q = `SELECT ` + analysisColumns + ` FROM report_analyses WHERE tenant_id=? AND id=?;`
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
WHERE tenant_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
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

// scanRecord expects a DSN with parseTime=true.
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

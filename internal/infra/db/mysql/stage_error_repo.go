package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/medreport-ai/internal/domain/stageerrors"
	"github.com/bryanwahyu/medreport-ai/internal/infra/db/column"
)

type StageErrorRepository struct {
	db *sql.DB
}

func NewStageErrorRepository(db *sql.DB) *StageErrorRepository {
	return &StageErrorRepository{db: db}
}

func (r *StageErrorRepository) Save(ctx context.Context, e *domain.StageError) error {
	const q = `
INSERT INTO report_stage_errors
  (tenant_id, analysis_id, stage, message, details_json, created_at)
VALUES (?,?,?,?,?,?)
`
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := r.db.ExecContext(ctx, q,
		column.OrDash(e.TenantID), column.OrDash(e.AnalysisID), column.OrDash(e.Stage),
		column.OrDash(e.Message), column.JSONObject(e.DetailsJSON), created.UTC(),
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

func (r *StageErrorRepository) ListByAnalysis(ctx context.Context, tenant string, analysisID string, limit int) ([]*domain.StageError, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, tenant_id, analysis_id, stage, message, details_json, created_at
FROM report_stage_errors
WHERE tenant_id = ? AND analysis_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, tenant, analysisID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.StageError
	for rows.Next() {
		var e domain.StageError
		if err := rows.Scan(&e.ID, &e.TenantID, &e.AnalysisID, &e.Stage, &e.Message, &e.DetailsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

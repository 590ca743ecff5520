package postgres

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
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id`
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return r.db.QueryRowContext(ctx, q,
		column.OrDash(e.TenantID), column.OrDash(e.AnalysisID), column.OrDash(e.Stage),
		column.OrDash(e.Message), column.JSONObject(e.DetailsJSON), created,
	).Scan(&e.ID)
}

func (r *StageErrorRepository) ListByAnalysis(ctx context.Context, tenant string, analysisID string, limit int) ([]*domain.StageError, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, tenant_id, analysis_id, stage, message, details_json, created_at
FROM report_stage_errors
WHERE tenant_id=$1 AND analysis_id=$2
ORDER BY created_at DESC, id DESC
LIMIT $3;`
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

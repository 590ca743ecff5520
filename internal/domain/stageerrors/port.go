package stageerrors

import "context"

// Repository defines persistence for stage errors
type Repository interface {
	Save(ctx context.Context, e *StageError) error
	ListByAnalysis(ctx context.Context, tenant string, analysisID string, limit int) ([]*StageError, error)
}

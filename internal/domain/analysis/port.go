package analysis

import "context"

// Repository port for persisting and querying analyses
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, tenant string, id ID) (*Record, error)
	Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*Record, error)
	Delete(ctx context.Context, tenant string, id ID) error
}

// ImageStore port for keeping the uploaded report image
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

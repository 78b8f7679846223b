package port

import (
	"context"

	"github.com/arklim/rera-lookup-gateway/internal/core/domain"
)

// LookupHistoryRepository records terminal lookup outcomes for auditing.
type LookupHistoryRepository interface {
	Record(ctx context.Context, record domain.LookupRecord) error
	// List returns the most recent records, newest first.
	List(ctx context.Context, limit int) ([]domain.LookupRecord, error)
}

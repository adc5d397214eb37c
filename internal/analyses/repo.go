package analyses

import "context"

// Repo defines persistence operations for records. Records are insert-only.
type Repo interface {
	Create(ctx context.Context, rec Record) error
	GetForUser(ctx context.Context, userID, recordID string) (Record, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error)
}

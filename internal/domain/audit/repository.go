package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Filter selects audit entries. Empty fields match everything.
type Filter struct {
	ActorID      string
	ResourceType ResourceType
	ResourceID   string
	From         *time.Time
	To           *time.Time
}

// Repository appends to and reads the audit trail. There is no update or delete.
type Repository interface {
	// Append stores the entry and fills in its Sequence
	Append(ctx context.Context, entry *Entry) error
	// List returns entries in canonical order (created_at, sequence)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

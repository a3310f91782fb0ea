package outbox

import (
	"context"

	"github.com/google/uuid"
)

// Archive is the per-account history of relayed events, kept outside the
// ledger database for reads.
type Archive interface {
	// Store is idempotent by event id; storing an event twice keeps the first copy
	Store(ctx context.Context, event *Event) error
	// ListByAccount returns events touching the account, newest first
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Event, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}

package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListFilter narrows an account history to a created_at window. Nil bounds are open.
type ListFilter struct {
	From *time.Time
	To   *time.Time
}

// Repository persists transaction records. Records are insert-only.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	// ListByAccount returns records touching the account, newest first
	ListByAccount(ctx context.Context, accountID uuid.UUID, filter ListFilter, limit, offset int) ([]*Record, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID, filter ListFilter) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrRecordNotFound indicates a missing transaction record
type ErrRecordNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

// Is treats a target without an id as matching any missing record
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrDuplicateRecord indicates a transaction id was already recorded
type ErrDuplicateRecord struct {
	TransactionID uuid.UUID
}

func (e ErrDuplicateRecord) Error() string {
	return "duplicate transaction: " + e.TransactionID.String()
}

func (e ErrDuplicateRecord) Is(target error) bool {
	t, ok := target.(ErrDuplicateRecord)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

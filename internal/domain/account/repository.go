package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// LockForUpdate reads the account and holds its row lock until the surrounding transaction ends
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)

	// UpdateBalance persists both balance fields, guarded by the previous version
	UpdateBalance(ctx context.Context, account *Account) error
	UpdateStatus(ctx context.Context, account *Account) error

	// ListInterestBearing pages through non-closed accounts with a positive rate
	ListInterestBearing(ctx context.Context, limit, offset int) ([]*Account, error)

	WithTx(tx pgx.Tx) Repository
}

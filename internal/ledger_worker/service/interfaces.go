package service

import (
	"context"

	"github.com/corebank-ledger/internal/domain/shared"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/google/uuid"
)

// CommandService executes ledger commands taken off the command topic.
// A nil error means the command is settled: posted, rejected by business
// rules, or already recorded earlier.
type CommandService interface {
	Execute(ctx context.Context, cmd *shared.LedgerCommand) error
}

// RecordFinder looks up recorded transactions for idempotency checks
type RecordFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*transaction.Record, error)
}

package ledger

import (
	"context"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/audit"
	"github.com/corebank-ledger/internal/domain/outbox"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/google/uuid"
)

// Store is the durable backing of the ledger. ExecuteTx runs fn in one
// all-or-nothing unit: if fn returns an error, or the commit fails, none of
// the writes made through tx are visible afterwards.
type Store interface {
	ExecuteTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of writes a posting or an account lifecycle change is made of.
type Tx interface {
	// LockAccount reads the account and keeps it pinned until the unit of work ends
	LockAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
	// SaveAccount persists the balances of a locked account
	SaveAccount(ctx context.Context, acc *account.Account) error
	CreateAccount(ctx context.Context, acc *account.Account) error
	// SaveAccountStatus persists the status of a locked account
	SaveAccountStatus(ctx context.Context, acc *account.Account) error
	CreateTransaction(ctx context.Context, record *transaction.Record) error
	AppendAudit(ctx context.Context, entry *audit.Entry) error
	EnqueueEvent(ctx context.Context, msg *outbox.Message) error
}

package service

import (
	"context"
	"time"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/audit"
	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/domain/outbox"
	"github.com/corebank-ledger/internal/domain/shared"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpenAccountInput is an account opening request after boundary validation
type OpenAccountInput struct {
	CustomerID     string
	Type           string
	Currency       string
	InterestRate   decimal.Decimal
	CreditLimit    *money.Money
	InitialDeposit *money.Money
}

// AccountService covers the account lifecycle routes
type AccountService interface {
	// OpenAccount opens the account and posts the initial deposit, if any.
	// When the deposit fails the opened account is returned with the error.
	OpenAccount(ctx context.Context, in OpenAccountInput, meta ledger.Meta) (*account.Account, *transaction.Record, error)

	// GetAccount returns account.ErrAccountNotFound when the id is unknown
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)

	ChangeStatus(ctx context.Context, id uuid.UUID, status account.Status, reason string, meta ledger.Meta) (*account.Account, error)

	// PostInterest returns a nil record when there was nothing to credit
	PostInterest(ctx context.Context, id uuid.UUID, meta ledger.Meta) (*transaction.Record, error)

	// ListEvents pages through the archived ledger events of the account, newest first
	ListEvents(ctx context.Context, id uuid.UUID, page, perPage int) ([]*outbox.Event, int64, error)
}

// PostingInput is a synchronous fund movement
type PostingInput struct {
	Type   transaction.Type
	From   *uuid.UUID
	To     *uuid.UUID
	Amount money.Money
}

// HistoryQuery selects one page of an account history
type HistoryQuery struct {
	AccountID uuid.UUID
	From      *time.Time
	To        *time.Time
	Page      int
	PerPage   int
}

// TransactionService posts movements and reads the transaction ledger
type TransactionService interface {
	Post(ctx context.Context, in PostingInput, meta ledger.Meta) (*transaction.Record, error)

	// GetTransaction returns transaction.ErrRecordNotFound when the id is unknown
	GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Record, error)

	// ListByAccount returns one page of records and the total number of matches
	ListByAccount(ctx context.Context, q HistoryQuery) ([]*transaction.Record, int64, error)
}

// AuditService reads the audit trail
type AuditService interface {
	List(ctx context.Context, filter audit.Filter, page, perPage int) ([]*audit.Entry, int64, error)
}

// CommandService queues ledger commands for the worker
type CommandService interface {
	Submit(ctx context.Context, cmd *shared.LedgerCommand) error
}

// AccountLifecycle is the part of ledger.Accounts the API needs
type AccountLifecycle interface {
	Open(ctx context.Context, p ledger.OpenParams, meta ledger.Meta) (*account.Account, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, next account.Status, reason string, meta ledger.Meta) (*account.Account, error)
}

var _ AccountLifecycle = (*ledger.Accounts)(nil)

func offset(page, perPage int) int {
	return (page - 1) * perPage
}

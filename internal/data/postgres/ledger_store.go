package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/audit"
	"github.com/corebank-ledger/internal/domain/outbox"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/corebank-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// LedgerStore runs ledger units of work as single PostgreSQL transactions.
type LedgerStore struct {
	db           *persistence.PostgresDB
	accounts     account.Repository
	transactions transaction.Repository
	audit        audit.Repository
	outbox       outbox.Repository
	lockTimeout  time.Duration
	logger       *slog.Logger
}

var _ ledger.Store = (*LedgerStore)(nil)

// NewLedgerStore builds the store. lockTimeout bounds every row lock wait
// inside a unit of work; zero leaves the server default.
func NewLedgerStore(logger *slog.Logger, db *persistence.PostgresDB, lockTimeout time.Duration) *LedgerStore {
	return &LedgerStore{
		db:           db,
		accounts:     NewAccountRepository(logger, db),
		transactions: NewTransactionRepository(logger, db),
		audit:        NewAuditRepository(logger, db),
		outbox:       NewOutboxRepository(logger, db),
		lockTimeout:  lockTimeout,
		logger:       logger,
	}
}

func (s *LedgerStore) ExecuteTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if s.lockTimeout > 0 {
			// SET does not take bind parameters
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to set lock timeout: %w", err)
			}
		}
		return fn(ctx, &ledgerTx{
			accounts:     s.accounts.WithTx(tx),
			transactions: s.transactions.WithTx(tx),
			audit:        s.audit.WithTx(tx),
			outbox:       s.outbox.WithTx(tx),
		})
	})
	return s.translate(err)
}

// translate turns a row lock wait that ran out into ErrLockTimeout
func (s *LedgerStore) translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		s.logger.Warn("Row lock wait exceeded", "lock_timeout", s.lockTimeout)
		return ledger.ErrLockTimeout{Wait: s.lockTimeout, Err: err}
	}
	return err
}

type ledgerTx struct {
	accounts     account.Repository
	transactions transaction.Repository
	audit        audit.Repository
	outbox       outbox.Repository
}

func (t *ledgerTx) LockAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return t.accounts.LockForUpdate(ctx, id)
}

func (t *ledgerTx) SaveAccount(ctx context.Context, acc *account.Account) error {
	return t.accounts.UpdateBalance(ctx, acc)
}

func (t *ledgerTx) CreateAccount(ctx context.Context, acc *account.Account) error {
	return t.accounts.Create(ctx, acc)
}

func (t *ledgerTx) SaveAccountStatus(ctx context.Context, acc *account.Account) error {
	return t.accounts.UpdateStatus(ctx, acc)
}

func (t *ledgerTx) CreateTransaction(ctx context.Context, record *transaction.Record) error {
	return t.transactions.Create(ctx, record)
}

func (t *ledgerTx) AppendAudit(ctx context.Context, entry *audit.Entry) error {
	return t.audit.Append(ctx, entry)
}

func (t *ledgerTx) EnqueueEvent(ctx context.Context, msg *outbox.Message) error {
	return t.outbox.Create(ctx, msg)
}

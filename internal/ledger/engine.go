// Package ledger is the posting engine: it moves money between accounts,
// enforces solvency and writes every attempt to the transaction ledger and the
// audit trail. Callers reach it through Service.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/domain/outbox"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/google/uuid"
)

// Service is the narrow interface the request boundary and the worker call into.
type Service interface {
	Deposit(ctx context.Context, accountID uuid.UUID, amount money.Money, meta Meta) (*transaction.Record, error)
	Withdraw(ctx context.Context, accountID uuid.UUID, amount money.Money, meta Meta) (*transaction.Record, error)
	Transfer(ctx context.Context, fromID, toID uuid.UUID, amount money.Money, meta Meta) (*transaction.Record, error)
	// PostInterest returns (nil, nil) when the computed interest is not positive
	PostInterest(ctx context.Context, accountID uuid.UUID, meta Meta) (*transaction.Record, error)
}

// Meta carries who asked for an operation and under which policy.
type Meta struct {
	TransactionID uuid.UUID // optional; a fresh id is generated when zero
	ActorID       string
	CorrelationID string
	Description   string
	RequireActive bool // reject FROZEN and DORMANT accounts as well as CLOSED ones
}

var _ Service = (*Engine)(nil)

// errNothingToPost rolls back an interest posting that computed to zero.
var errNothingToPost = errors.New("nothing to post")

// Engine implements Service on top of a Store and a Locker.
type Engine struct {
	store    Store
	locker   Locker
	logger   *slog.Logger
	now      func() time.Time
	recorder *rejectionRecorder
}

func NewEngine(store Store, locker Locker, logger *slog.Logger) *Engine {
	return &Engine{
		store:    store,
		locker:   locker,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		recorder: &rejectionRecorder{store: store, logger: logger},
	}
}

// WithClock replaces the time source; used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) Deposit(ctx context.Context, accountID uuid.UUID, amount money.Money, meta Meta) (*transaction.Record, error) {
	return e.post(ctx, e.newOperation(transaction.TypeDeposit, nil, &accountID, amount, meta))
}

func (e *Engine) Withdraw(ctx context.Context, accountID uuid.UUID, amount money.Money, meta Meta) (*transaction.Record, error) {
	return e.post(ctx, e.newOperation(transaction.TypeWithdrawal, &accountID, nil, amount, meta))
}

// Transfer debits fromID and credits toID in one unit of work producing a single record.
func (e *Engine) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount money.Money, meta Meta) (*transaction.Record, error) {
	return e.post(ctx, e.newOperation(transaction.TypeTransfer, &fromID, &toID, amount, meta))
}

// PostInterest credits one month of interest computed from the balance read
// under lock.
func (e *Engine) PostInterest(ctx context.Context, accountID uuid.UUID, meta Meta) (*transaction.Record, error) {
	op := e.newOperation(transaction.TypeInterest, nil, &accountID, money.Money{}, meta)
	logger := op.logger(e.logger)

	if err := op.validate(); err != nil {
		return nil, e.reject(ctx, op, err)
	}

	var record *transaction.Record
	err := e.run(ctx, op, func(ctx context.Context, tx Tx) error {
		acc, err := tx.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if err := acc.EnsureOperable(op.meta.RequireActive); err != nil {
			return err
		}

		interest := acc.MonthlyInterest()
		if !interest.IsPositive() {
			return errNothingToPost
		}
		op.amount = interest
		if op.meta.Description == "" {
			op.meta.Description = fmt.Sprintf("Monthly interest at %s%% APR", acc.InterestRate.String())
		}

		if err := acc.Credit(interest, op.at); err != nil {
			return err
		}
		record, err = e.commitPosting(ctx, tx, op, map[uuid.UUID]*account.Account{accountID: acc})
		return err
	})
	if errors.Is(err, errNothingToPost) {
		logger.Debug("No interest to post")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Interest posted", "amount", record.Amount.String(), "reference_number", record.ReferenceNumber)
	return record, nil
}

// post runs a deposit, withdrawal or transfer. The debit leg always runs
// before the credit leg; either failing aborts the whole unit of work.
func (e *Engine) post(ctx context.Context, op *operation) (*transaction.Record, error) {
	logger := op.logger(e.logger)

	if err := op.validate(); err != nil {
		return nil, e.reject(ctx, op, err)
	}

	var record *transaction.Record
	err := e.run(ctx, op, func(ctx context.Context, tx Tx) error {
		accounts, err := lockAccounts(ctx, tx, op.accountIDs())
		if err != nil {
			return err
		}
		if op.from != nil {
			src := accounts[*op.from]
			if err := src.EnsureOperable(op.meta.RequireActive); err != nil {
				return err
			}
			if err := src.Debit(op.amount, op.at); err != nil {
				return err
			}
		}
		if op.to != nil {
			dst := accounts[*op.to]
			if err := dst.EnsureOperable(op.meta.RequireActive); err != nil {
				return err
			}
			if err := dst.Credit(op.amount, op.at); err != nil {
				return err
			}
		}
		record, err = e.commitPosting(ctx, tx, op, accounts)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Transaction posted", "amount", record.Amount.String(), "reference_number", record.ReferenceNumber)
	return record, nil
}

// run holds the operation's account locks for the whole unit of work,
// including the recording of a rejection, so the audit trail of an account
// follows its lock order.
func (e *Engine) run(ctx context.Context, op *operation, fn func(ctx context.Context, tx Tx) error) error {
	release, err := e.locker.Acquire(ctx, op.accountIDs())
	if err != nil {
		return e.reject(ctx, op, err)
	}
	defer release()

	op.at = e.now()
	err = e.store.ExecuteTx(ctx, fn)
	if err == nil || errors.Is(err, errNothingToPost) {
		return err
	}
	return e.reject(ctx, op, err)
}

// commitPosting writes balances, the record, the audit entry and the outbox
// event through tx. Any failure here rolls back the balances too.
func (e *Engine) commitPosting(ctx context.Context, tx Tx, op *operation, accounts map[uuid.UUID]*account.Account) (*transaction.Record, error) {
	for _, id := range op.accountIDs() {
		acc := accounts[id]
		if err := acc.CheckInvariants(); err != nil {
			return nil, err
		}
		if err := tx.SaveAccount(ctx, acc); err != nil {
			return nil, err
		}
	}

	record, err := transaction.New(op.params(), transaction.StatusCompleted, "")
	if err != nil {
		return nil, ErrInvalidOperation{Reason: err.Error(), Err: err}
	}
	if err := tx.CreateTransaction(ctx, record); err != nil {
		return nil, err
	}

	entry, err := op.auditEntry(record, nil)
	if err != nil {
		return nil, err
	}
	if err := tx.AppendAudit(ctx, entry); err != nil {
		return nil, err
	}

	event, err := outbox.NewEvent(outbox.EventTransactionCompleted, op.accountIDs(), record, entry)
	if err != nil {
		return nil, err
	}
	msg, err := outbox.NewMessage(event)
	if err != nil {
		return nil, err
	}
	if err := tx.EnqueueEvent(ctx, msg); err != nil {
		return nil, err
	}
	return record, nil
}

// reject classifies err, records the attempt and returns the classified error.
func (e *Engine) reject(ctx context.Context, op *operation, err error) error {
	classified := classify("commit "+string(op.txType), err)
	kind := KindOf(classified)

	logger := op.logger(e.logger).With("error_kind", string(kind), "error", classified)
	if kind.Retryable() {
		logger.Error("Ledger operation failed")
	} else {
		logger.Warn("Ledger operation rejected")
	}

	e.recorder.record(ctx, op, classified)
	return classified
}

// lockAccounts pins every account in global order and fails on the first missing one.
func lockAccounts(ctx context.Context, tx Tx, ids []uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	accounts := make(map[uuid.UUID]*account.Account, len(ids))
	for _, id := range OrderAccountIDs(ids) {
		acc, err := tx.LockAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		accounts[id] = acc
	}
	return accounts, nil
}

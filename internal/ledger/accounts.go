package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/audit"
	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/domain/outbox"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpenParams describe a new account. Opening deposits go through Engine.Deposit.
type OpenParams struct {
	CustomerID   string
	Type         string
	Currency     string
	InterestRate decimal.Decimal
	CreditLimit  *money.Money
}

// Accounts owns account lifecycle changes. It shares the engine's Store and
// Locker, so a status change never interleaves with a posting on the same
// account.
type Accounts struct {
	store  Store
	locker Locker
	logger *slog.Logger
	now    func() time.Time
}

func NewAccounts(store Store, locker Locker, logger *slog.Logger) *Accounts {
	return &Accounts{
		store:  store,
		locker: locker,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type openDetails struct {
	CustomerID    string          `json:"customer_id"`
	AccountNumber string          `json:"account_number"`
	AccountType   string          `json:"account_type"`
	Currency      string          `json:"currency"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	CreditLimit   *money.Money    `json:"credit_limit,omitempty"`
}

type statusDetails struct {
	Outcome   string         `json:"outcome"`
	From      account.Status `json:"from,omitempty"`
	To        account.Status `json:"to"`
	Reason    string         `json:"reason,omitempty"`
	ErrorKind Kind           `json:"error_kind,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Open creates an ACTIVE account with a zero balance, its OPEN_ACCOUNT audit
// entry and its account.opened event in one unit of work.
func (a *Accounts) Open(ctx context.Context, p OpenParams, meta Meta) (*account.Account, error) {
	if meta.ActorID == "" {
		return nil, ErrInvalidOperation{Reason: "account opening must be attributed to an actor", Err: audit.ErrMissingActor}
	}
	acc, err := account.NewAccount(p.CustomerID, p.Type, p.Currency, p.InterestRate, p.CreditLimit)
	if err != nil {
		return nil, ErrInvalidOperation{Reason: err.Error(), Err: err}
	}
	now := a.now()
	acc.CreatedAt, acc.UpdatedAt = now, now

	err = a.store.ExecuteTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.CreateAccount(ctx, acc); err != nil {
			return err
		}
		entry, err := audit.NewEntry(meta.ActorID, audit.ActionOpenAccount, audit.ResourceAccount, acc.ID.String(), openDetails{
			CustomerID:    acc.CustomerID,
			AccountNumber: acc.AccountNumber,
			AccountType:   acc.Type,
			Currency:      acc.Currency,
			InterestRate:  acc.InterestRate,
			CreditLimit:   acc.CreditLimit,
		}, now)
		if err != nil {
			return err
		}
		entry.WithCorrelation(meta.CorrelationID)
		if err := tx.AppendAudit(ctx, entry); err != nil {
			return err
		}
		return enqueue(ctx, tx, outbox.EventAccountOpened, acc.ID, entry)
	})
	if err != nil {
		err = classify("open account", err)
		a.logger.Error("Failed to open account", "customer_id", p.CustomerID, "actor_id", meta.ActorID, "error", err)
		return nil, err
	}

	a.logger.Info("Account opened",
		"account_id", acc.ID.String(),
		"account_number", acc.AccountNumber,
		"actor_id", meta.ActorID,
	)
	return acc, nil
}

// ChangeStatus moves the account to next under its lock. Rejected changes are
// audited too.
func (a *Accounts) ChangeStatus(ctx context.Context, id uuid.UUID, next account.Status, reason string, meta Meta) (*account.Account, error) {
	logger := a.logger.With("account_id", id.String(), "actor_id", meta.ActorID, "to_status", string(next))
	if meta.ActorID == "" {
		return nil, ErrInvalidOperation{Reason: "status change must be attributed to an actor", Err: audit.ErrMissingActor}
	}

	details := statusDetails{Outcome: audit.OutcomeCompleted, To: next, Reason: reason}
	at := a.now()

	release, err := a.locker.Acquire(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, a.rejectStatus(ctx, id, details, meta, at, err, logger)
	}
	defer release()

	var updated *account.Account
	err = a.store.ExecuteTx(ctx, func(ctx context.Context, tx Tx) error {
		acc, err := tx.LockAccount(ctx, id)
		if err != nil {
			return err
		}
		details.From = acc.Status
		if err := acc.ChangeStatus(next, at); err != nil {
			return ErrInvalidOperation{Reason: err.Error(), Err: err}
		}
		if err := tx.SaveAccountStatus(ctx, acc); err != nil {
			return err
		}

		entry, err := audit.NewEntry(meta.ActorID, audit.ActionUpdateStatus, audit.ResourceAccount, id.String(), details, at)
		if err != nil {
			return err
		}
		entry.WithCorrelation(meta.CorrelationID)
		if err := tx.AppendAudit(ctx, entry); err != nil {
			return err
		}
		if err := enqueue(ctx, tx, outbox.EventAccountStatusChanged, id, entry); err != nil {
			return err
		}
		updated = acc
		return nil
	})
	if err != nil {
		return nil, a.rejectStatus(ctx, id, details, meta, at, err, logger)
	}

	logger.Info("Account status changed", "from_status", string(details.From))
	return updated, nil
}

func (a *Accounts) rejectStatus(ctx context.Context, id uuid.UUID, details statusDetails, meta Meta, at time.Time, cause error, logger *slog.Logger) error {
	classified := classify("change account status", cause)
	details.Outcome = audit.OutcomeRejected
	details.ErrorKind = KindOf(classified)
	details.Error = classified.Error()

	if KindOf(classified).Retryable() {
		logger.Error("Account status change failed", "error", classified)
	} else {
		logger.Warn("Account status change rejected", "error", classified)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	err := a.store.ExecuteTx(ctx, func(ctx context.Context, tx Tx) error {
		entry, err := audit.NewEntry(meta.ActorID, audit.ActionUpdateStatus, audit.ResourceAccount, id.String(), details, at)
		if err != nil {
			return err
		}
		return tx.AppendAudit(ctx, entry.WithCorrelation(meta.CorrelationID))
	})
	if err != nil {
		logger.Error("Failed to record rejected status change", "error", err)
	}
	return classified
}

func enqueue(ctx context.Context, tx Tx, eventType outbox.EventType, accountID uuid.UUID, entry *audit.Entry) error {
	event, err := outbox.NewEvent(eventType, []uuid.UUID{accountID}, nil, entry)
	if err != nil {
		return err
	}
	msg, err := outbox.NewMessage(event)
	if err != nil {
		return err
	}
	return tx.EnqueueEvent(ctx, msg)
}

// IsInvalidStatusTransition reports whether err is a rejected lifecycle move.
func IsInvalidStatusTransition(err error) bool {
	var transition account.ErrInvalidStatusTransition
	var status account.ErrInvalidStatus
	return errors.As(err, &transition) || errors.As(err, &status)
}

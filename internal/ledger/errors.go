package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/google/uuid"
)

// Kind classifies every error the engine can return
type Kind string

const (
	KindUnknown              Kind = ""
	KindAccountNotFound      Kind = "ACCOUNT_NOT_FOUND"
	KindInvalidAccountStatus Kind = "INVALID_ACCOUNT_STATUS"
	KindInsufficientFunds    Kind = "INSUFFICIENT_FUNDS"
	KindInvalidOperation     Kind = "INVALID_OPERATION"
	KindLockTimeout          Kind = "LOCK_TIMEOUT"
	KindStorageFailure       Kind = "STORAGE_FAILURE"
)

// Retryable reports whether the same request may succeed if simply tried again.
func (k Kind) Retryable() bool {
	return k == KindLockTimeout || k == KindStorageFailure
}

// ErrInvalidOperation indicates a malformed request reached the engine
type ErrInvalidOperation struct {
	Reason string
	Err    error
}

func (e ErrInvalidOperation) Error() string {
	return "invalid operation: " + e.Reason
}

func (e ErrInvalidOperation) Unwrap() error { return e.Err }

func (e ErrInvalidOperation) Is(target error) bool {
	_, ok := target.(ErrInvalidOperation)
	return ok
}

// ErrLockTimeout indicates the account locks could not be acquired within the bounded wait
type ErrLockTimeout struct {
	AccountIDs []uuid.UUID
	Wait       time.Duration
	Err        error
}

func (e ErrLockTimeout) Error() string {
	return fmt.Sprintf("timed out after %s waiting for locks on accounts %v", e.Wait, e.AccountIDs)
}

func (e ErrLockTimeout) Unwrap() error { return e.Err }

func (e ErrLockTimeout) Is(target error) bool {
	_, ok := target.(ErrLockTimeout)
	return ok
}

// ErrStorageFailure indicates the durable commit failed and everything was rolled back
type ErrStorageFailure struct {
	Op  string
	Err error
}

func (e ErrStorageFailure) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e ErrStorageFailure) Unwrap() error { return e.Err }

func (e ErrStorageFailure) Is(target error) bool {
	_, ok := target.(ErrStorageFailure)
	return ok
}

// KindOf returns the kind of err, or KindUnknown for errors the engine never returns.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var (
		lockTimeout  ErrLockTimeout
		storage      ErrStorageFailure
		invalidOp    ErrInvalidOperation
		notFound     account.ErrAccountNotFound
		badStatus    account.ErrInvalidAccountStatus
		insufficient account.ErrInsufficientFunds
	)
	switch {
	case errors.As(err, &lockTimeout):
		return KindLockTimeout
	case errors.As(err, &storage):
		return KindStorageFailure
	case errors.As(err, &invalidOp):
		return KindInvalidOperation
	case errors.As(err, &notFound):
		return KindAccountNotFound
	case errors.As(err, &badStatus):
		return KindInvalidAccountStatus
	case errors.As(err, &insufficient):
		return KindInsufficientFunds
	}
	return KindUnknown
}

// IsRetryable is true for lock timeouts and storage failures.
func IsRetryable(err error) bool {
	return KindOf(err).Retryable()
}

// classify folds anything raised inside a unit of work into the closed set of kinds.
func classify(op string, err error) error {
	if KindOf(err) != KindUnknown {
		return err
	}
	switch {
	case errors.Is(err, money.ErrCurrencyMismatch):
		return ErrInvalidOperation{Reason: "amount currency does not match the account", Err: err}
	case errors.Is(err, money.ErrAmountOutOfRange):
		return ErrInvalidOperation{Reason: "resulting balance exceeds the storable range", Err: err}
	case errors.Is(err, transaction.ErrDuplicateRecord{}):
		return ErrInvalidOperation{Reason: "transaction id already recorded", Err: err}
	}
	return ErrStorageFailure{Op: op, Err: err}
}

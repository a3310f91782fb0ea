package account

import (
	"fmt"

	"github.com/corebank-ledger/internal/domain/money"
	"github.com/google/uuid"
)

// ErrAccountNotFound indicates the referenced account does not exist
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// Is matches any ErrAccountNotFound when the target carries no id.
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.AccountID == uuid.Nil || t.AccountID == e.AccountID
}

// ErrInvalidAccountStatus indicates the account's status forbids the operation
type ErrInvalidAccountStatus struct {
	AccountID uuid.UUID
	Status    Status
}

func (e ErrInvalidAccountStatus) Error() string {
	return fmt.Sprintf("account %s is %s", e.AccountID, e.Status)
}

func (e ErrInvalidAccountStatus) Is(target error) bool {
	t, ok := target.(ErrInvalidAccountStatus)
	if !ok {
		return false
	}
	return t.AccountID == uuid.Nil || t.AccountID == e.AccountID
}

// ErrInsufficientFunds carries the available balance observed under lock and
// the amount that was requested.
type ErrInsufficientFunds struct {
	AccountID uuid.UUID
	Available money.Money
	Requested money.Money
}

func (e ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds in account %s: available %s, requested %s", e.AccountID, e.Available, e.Requested)
}

func (e ErrInsufficientFunds) Is(target error) bool {
	t, ok := target.(ErrInsufficientFunds)
	if !ok {
		return false
	}
	return t.AccountID == uuid.Nil || t.AccountID == e.AccountID
}

// ErrInvalidStatus indicates an unknown status value
type ErrInvalidStatus struct {
	Status Status
}

func (e ErrInvalidStatus) Error() string {
	return fmt.Sprintf("invalid account status %q", string(e.Status))
}

// ErrInvalidStatusTransition indicates a lifecycle move the state machine forbids
type ErrInvalidStatusTransition struct {
	AccountID uuid.UUID
	From      Status
	To        Status
}

func (e ErrInvalidStatusTransition) Error() string {
	return fmt.Sprintf("account %s cannot move from %s to %s", e.AccountID, e.From, e.To)
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	AccountID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.AccountID.String()
}

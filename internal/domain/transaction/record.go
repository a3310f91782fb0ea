// Package transaction defines the immutable record written once per attempted
// fund movement.
package transaction

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/corebank-ledger/internal/domain/money"
	"github.com/google/uuid"
)

// Type is the kind of fund movement
type Type string

const (
	TypeDeposit    Type = "DEPOSIT"
	TypeWithdrawal Type = "WITHDRAWAL"
	TypeTransfer   Type = "TRANSFER"
	TypeInterest   Type = "INTEREST"
)

func (t Type) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeTransfer, TypeInterest:
		return true
	}
	return false
}

// Status is the outcome of the attempt
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusRejected  Status = "REJECTED"
)

var (
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidStatus      = errors.New("invalid transaction status")
	ErrNonPositiveAmount  = errors.New("transaction amount must be greater than zero")
	ErrMissingAccounts    = errors.New("transaction needs a source or a destination account")
	ErrSelfTransfer       = errors.New("transfer source and destination must differ")
	ErrMissingActor       = errors.New("transaction must be attributed to an actor")
	ErrMissingFailure     = errors.New("rejected transaction needs a failure reason")
	ErrUnexpectedAccount  = errors.New("account not allowed for this transaction type")
	ErrMissingSource      = errors.New("transaction type requires a source account")
	ErrMissingDestination = errors.New("transaction type requires a destination account")
)

// Record describes one movement. It is never modified once created; a
// rejected attempt gets its own Record with StatusRejected.
type Record struct {
	ID              uuid.UUID   `json:"id"`
	FromAccountID   *uuid.UUID  `json:"from_account_id,omitempty"`
	ToAccountID     *uuid.UUID  `json:"to_account_id,omitempty"`
	Type            Type        `json:"type"`
	Amount          money.Money `json:"amount"`
	Status          Status      `json:"status"`
	ReferenceNumber string      `json:"reference_number"`
	Description     string      `json:"description,omitempty"`
	FailureReason   string      `json:"failure_reason,omitempty"`
	ActorID         string      `json:"actor_id"`
	CorrelationID   string      `json:"correlation_id,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Params are the inputs of New. A zero ID is replaced with a fresh one.
type Params struct {
	ID            uuid.UUID
	Type          Type
	From          *uuid.UUID
	To            *uuid.UUID
	Amount        money.Money
	Description   string
	ActorID       string
	CorrelationID string
	CreatedAt     time.Time
}

// New builds a validated record with the given outcome.
func New(p Params, status Status, failureReason string) (*Record, error) {
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	r := &Record{
		ID:              id,
		FromAccountID:   p.From,
		ToAccountID:     p.To,
		Type:            p.Type,
		Amount:          p.Amount,
		Status:          status,
		ReferenceNumber: NewReferenceNumber(createdAt, id),
		Description:     p.Description,
		FailureReason:   failureReason,
		ActorID:         p.ActorID,
		CorrelationID:   p.CorrelationID,
		CreatedAt:       createdAt,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// ValidateShape checks the account/amount shape of a movement without building a record.
func ValidateShape(t Type, from, to *uuid.UUID, amount money.Money) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, string(t))
	}
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if from == nil && to == nil {
		return ErrMissingAccounts
	}
	switch t {
	case TypeDeposit, TypeInterest:
		if to == nil {
			return ErrMissingDestination
		}
		if from != nil {
			return ErrUnexpectedAccount
		}
	case TypeWithdrawal:
		if from == nil {
			return ErrMissingSource
		}
		if to != nil {
			return ErrUnexpectedAccount
		}
	case TypeTransfer:
		if from == nil {
			return ErrMissingSource
		}
		if to == nil {
			return ErrMissingDestination
		}
		if *from == *to {
			return ErrSelfTransfer
		}
	}
	return nil
}

// Validate enforces the record invariants.
func (r *Record) Validate() error {
	if err := ValidateShape(r.Type, r.FromAccountID, r.ToAccountID, r.Amount); err != nil {
		return err
	}
	if r.ActorID == "" {
		return ErrMissingActor
	}
	switch r.Status {
	case StatusCompleted:
	case StatusRejected:
		if r.FailureReason == "" {
			return ErrMissingFailure
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, string(r.Status))
	}
	return nil
}

// AccountIDs lists the accounts the record touches, source first.
func (r *Record) AccountIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, 2)
	if r.FromAccountID != nil {
		ids = append(ids, *r.FromAccountID)
	}
	if r.ToAccountID != nil {
		ids = append(ids, *r.ToAccountID)
	}
	return ids
}

// NewReferenceNumber returns TXN followed by the unix milliseconds of at and
// the last 12 hex digits of id. Those digits are random in a v4 id, and
// the primary key already keeps ids unique.
func NewReferenceNumber(at time.Time, id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return fmt.Sprintf("TXN%d%s", at.UnixMilli(), strings.ToUpper(hex[len(hex)-12:]))
}

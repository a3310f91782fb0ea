package ledger

import (
	"errors"
	"log/slog"
	"time"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/audit"
	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/google/uuid"
)

// operation is one attempted movement as the engine sees it
type operation struct {
	id     uuid.UUID
	txType transaction.Type
	from   *uuid.UUID
	to     *uuid.UUID
	amount money.Money
	meta   Meta
	at     time.Time
}

func (e *Engine) newOperation(txType transaction.Type, from, to *uuid.UUID, amount money.Money, meta Meta) *operation {
	id := meta.TransactionID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &operation{
		id:     id,
		txType: txType,
		from:   from,
		to:     to,
		amount: amount,
		meta:   meta,
		at:     e.now(),
	}
}

// validate runs the checks that need no account state. Interest has no
// caller-supplied amount, so only attribution is checked for it.
func (op *operation) validate() error {
	if op.meta.ActorID == "" {
		return ErrInvalidOperation{Reason: "operation must be attributed to an actor", Err: transaction.ErrMissingActor}
	}
	if op.txType == transaction.TypeInterest {
		return nil
	}
	if err := transaction.ValidateShape(op.txType, op.from, op.to, op.amount); err != nil {
		return ErrInvalidOperation{Reason: err.Error(), Err: err}
	}
	return nil
}

func (op *operation) accountIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, 2)
	if op.from != nil {
		ids = append(ids, *op.from)
	}
	if op.to != nil {
		ids = append(ids, *op.to)
	}
	return OrderAccountIDs(ids)
}

func (op *operation) params() transaction.Params {
	return transaction.Params{
		ID:            op.id,
		Type:          op.txType,
		From:          op.from,
		To:            op.to,
		Amount:        op.amount,
		Description:   op.meta.Description,
		ActorID:       op.meta.ActorID,
		CorrelationID: op.meta.CorrelationID,
		CreatedAt:     op.at,
	}
}

func (op *operation) action() audit.Action {
	switch op.txType {
	case transaction.TypeDeposit:
		return audit.ActionDeposit
	case transaction.TypeWithdrawal:
		return audit.ActionWithdrawal
	case transaction.TypeInterest:
		return audit.ActionPostInterest
	default:
		return audit.ActionTransfer
	}
}

func (op *operation) logger(base *slog.Logger) *slog.Logger {
	attrs := []any{
		"operation", string(op.txType),
		"transaction_id", op.id.String(),
		"actor_id", op.meta.ActorID,
	}
	if op.meta.CorrelationID != "" {
		attrs = append(attrs, "correlation_id", op.meta.CorrelationID)
	}
	if op.from != nil {
		attrs = append(attrs, "from_account_id", op.from.String())
	}
	if op.to != nil {
		attrs = append(attrs, "to_account_id", op.to.String())
	}
	return base.With(attrs...)
}

// postingDetails is the audit payload: the operation's input plus its outcome
type postingDetails struct {
	Outcome          string           `json:"outcome"`
	TransactionType  transaction.Type `json:"transaction_type"`
	FromAccountID    *uuid.UUID       `json:"from_account_id,omitempty"`
	ToAccountID      *uuid.UUID       `json:"to_account_id,omitempty"`
	Amount           *money.Money     `json:"amount,omitempty"`
	Description      string           `json:"description,omitempty"`
	RequireActive    bool             `json:"require_active"`
	ReferenceNumber  string           `json:"reference_number,omitempty"`
	ErrorKind        Kind             `json:"error_kind,omitempty"`
	Error            string           `json:"error,omitempty"`
	AvailableBalance *money.Money     `json:"available_balance,omitempty"`
	CurrentStatus    account.Status   `json:"current_status,omitempty"`
}

// auditEntry describes the attempt. record may be nil for rejections that
// produced no transaction record; cause is nil on success.
func (op *operation) auditEntry(record *transaction.Record, cause error) (*audit.Entry, error) {
	details := postingDetails{
		Outcome:         audit.OutcomeCompleted,
		TransactionType: op.txType,
		FromAccountID:   op.from,
		ToAccountID:     op.to,
		Description:     op.meta.Description,
		RequireActive:   op.meta.RequireActive,
	}
	if op.amount.IsPositive() {
		amount := op.amount
		details.Amount = &amount
	}
	if record != nil {
		details.ReferenceNumber = record.ReferenceNumber
	}
	if cause != nil {
		details.Outcome = audit.OutcomeRejected
		details.ErrorKind = KindOf(cause)
		details.Error = cause.Error()

		var insufficient account.ErrInsufficientFunds
		if errors.As(cause, &insufficient) {
			available := insufficient.Available
			details.AvailableBalance = &available
		}
		var badStatus account.ErrInvalidAccountStatus
		if errors.As(cause, &badStatus) {
			details.CurrentStatus = badStatus.Status
		}
	}

	entry, err := audit.NewEntry(op.meta.ActorID, op.action(), audit.ResourceTransaction, op.id.String(), details, op.at)
	if err != nil {
		return nil, err
	}
	return entry.WithCorrelation(op.meta.CorrelationID), nil
}

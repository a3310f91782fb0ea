package shared

import (
	"errors"
	"fmt"
	"time"

	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/google/uuid"
)

var (
	ErrMissingTransactionID = errors.New("command needs a transaction id")
	ErrMissingActorID       = errors.New("command needs an actor id")
)

// LedgerCommand is the Kafka message asking the worker to post one movement.
// TransactionID doubles as the idempotency key: a replayed command with an
// already-recorded id is skipped.
type LedgerCommand struct {
	TransactionID uuid.UUID        `json:"transaction_id"`
	Type          transaction.Type `json:"type"`
	FromAccountID *uuid.UUID       `json:"from_account_id,omitempty"`
	ToAccountID   *uuid.UUID       `json:"to_account_id,omitempty"`
	Amount        string           `json:"amount,omitempty"` // decimal string; empty for INTEREST
	Currency      string           `json:"currency,omitempty"`
	Description   string           `json:"description,omitempty"`
	ActorID       string           `json:"actor_id"`
	CorrelationID string           `json:"correlation_id,omitempty"`
	RequireActive bool             `json:"require_active"`
	Timestamp     time.Time        `json:"timestamp"`
}

// Money parses the command amount.
func (c *LedgerCommand) Money() (money.Money, error) {
	return money.Parse(c.Amount, c.Currency)
}

// PartitionKey keeps commands for the same source account on one partition.
func (c *LedgerCommand) PartitionKey() string {
	if c.FromAccountID != nil {
		return c.FromAccountID.String()
	}
	if c.ToAccountID != nil {
		return c.ToAccountID.String()
	}
	return c.TransactionID.String()
}

// Validate checks the command is well formed before it is queued or executed.
func (c *LedgerCommand) Validate() error {
	if c.TransactionID == uuid.Nil {
		return ErrMissingTransactionID
	}
	if c.ActorID == "" {
		return ErrMissingActorID
	}
	if c.Type == transaction.TypeInterest {
		if c.ToAccountID == nil || c.FromAccountID != nil {
			return transaction.ErrMissingDestination
		}
		return nil
	}
	amount, err := c.Money()
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	return transaction.ValidateShape(c.Type, c.FromAccountID, c.ToAccountID, amount)
}

// Package audit holds the append-only compliance log. It is written in the same
// unit of work as the balance change it describes but is stored apart from
// the transaction records.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action names the state-changing operation that was attempted
type Action string

const (
	ActionDeposit      Action = "DEPOSIT"
	ActionWithdrawal   Action = "WITHDRAWAL"
	ActionTransfer     Action = "TRANSFER"
	ActionPostInterest Action = "POST_INTEREST"
	ActionOpenAccount  Action = "OPEN_ACCOUNT"
	ActionUpdateStatus Action = "UPDATE_STATUS"
)

// ResourceType names what the entry is about
type ResourceType string

const (
	ResourceTransaction ResourceType = "TRANSACTION"
	ResourceAccount     ResourceType = "ACCOUNT"
)

// Outcome values recorded in entry details
const (
	OutcomeCompleted = "COMPLETED"
	OutcomeRejected  = "REJECTED"
)

var (
	ErrMissingActor    = errors.New("audit entry needs an actor")
	ErrMissingAction   = errors.New("audit entry needs an action")
	ErrMissingResource = errors.New("audit entry needs a resource")
)

// Entry is one line of the audit trail. Sequence is assigned by the store on
// append and breaks ties between entries sharing a CreatedAt.
type Entry struct {
	ID            uuid.UUID       `json:"id"`
	Sequence      int64           `json:"sequence"`
	ActorID       string          `json:"actor_id"`
	Action        Action          `json:"action"`
	ResourceType  ResourceType    `json:"resource_type"`
	ResourceID    string          `json:"resource_id"`
	Details       json.RawMessage `json:"details"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewEntry marshals details and validates the entry.
func NewEntry(actorID string, action Action, resourceType ResourceType, resourceID string, details any, createdAt time.Time) (*Entry, error) {
	if actorID == "" {
		return nil, ErrMissingActor
	}
	if action == "" {
		return nil, ErrMissingAction
	}
	if resourceType == "" || resourceID == "" {
		return nil, ErrMissingResource
	}

	payload, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit details: %w", err)
	}
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return &Entry{
		ID:           uuid.New(),
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      payload,
		CreatedAt:    createdAt,
	}, nil
}

// WithCorrelation returns e tagged with the request correlation id.
func (e *Entry) WithCorrelation(correlationID string) *Entry {
	e.CorrelationID = correlationID
	return e
}

// Before reports whether e precedes other in canonical history order:
// created_at first, then sequence.
func (e *Entry) Before(other *Entry) bool {
	if !e.CreatedAt.Equal(other.CreatedAt) {
		return e.CreatedAt.Before(other.CreatedAt)
	}
	return e.Sequence < other.Sequence
}

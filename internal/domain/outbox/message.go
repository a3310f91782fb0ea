package outbox

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/corebank-ledger/internal/domain/audit"
	"github.com/corebank-ledger/internal/domain/shared"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/google/uuid"
)

// EventType names a ledger event published to downstream consumers
type EventType string

const (
	EventTransactionCompleted EventType = "transaction.completed"
	EventTransactionRejected  EventType = "transaction.rejected"
	EventAccountOpened        EventType = "account.opened"
	EventAccountStatusChanged EventType = "account.status_changed"
)

var ErrEventWithoutAudit = errors.New("ledger event must carry its audit entry")

// Event is what leaves the ledger: the audit entry of a unit of work plus the
// transaction record it produced, if any.
type Event struct {
	ID          uuid.UUID           `json:"id"`
	Type        EventType           `json:"type"`
	AccountIDs  []uuid.UUID         `json:"account_ids"`
	Transaction *transaction.Record `json:"transaction,omitempty"`
	Audit       *audit.Entry        `json:"audit"`
	OccurredAt  time.Time           `json:"occurred_at"`
}

// NewEvent pairs an audit entry with the record (nil for audit-only events).
func NewEvent(eventType EventType, accountIDs []uuid.UUID, record *transaction.Record, entry *audit.Entry) (*Event, error) {
	if entry == nil {
		return nil, ErrEventWithoutAudit
	}
	return &Event{
		ID:          uuid.New(),
		Type:        eventType,
		AccountIDs:  accountIDs,
		Transaction: record,
		Audit:       entry,
		OccurredAt:  entry.CreatedAt,
	}, nil
}

// Message is an Event waiting in the outbox table to be relayed
type Message struct {
	ID            int64               `json:"id"`
	EventID       uuid.UUID           `json:"event_id"`
	EventType     EventType           `json:"event_type"`
	AggregateID   uuid.UUID           `json:"aggregate_id"` // partition key downstream
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(event *Event) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	aggregate := event.ID
	if len(event.AccountIDs) > 0 {
		aggregate = event.AccountIDs[0]
	}

	return &Message{
		EventID:     event.ID,
		EventType:   event.Type,
		AggregateID: aggregate,
		Payload:     payload,
		Status:      shared.OutboxStatusPending,
		CreatedAt:   event.OccurredAt,
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// Event decodes the payload
func (m *Message) Event() (*Event, error) {
	var event Event
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

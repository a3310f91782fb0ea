package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corebank-ledger/internal/domain/outbox"
	"github.com/corebank-ledger/internal/platform/messaging/producers"
	"github.com/segmentio/kafka-go"
)

// ErrUndecodable marks an outbox payload that will never decode; retrying it is pointless
var ErrUndecodable = errors.New("undecodable outbox payload")

// EventPublisher relays one outbox message downstream
type EventPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

// EventRelay archives the event and then publishes it to the event topic.
// Both steps tolerate redelivery: the archive upserts by event id and
// consumers deduplicate on the event-id header.
type EventRelay struct {
	archive  outbox.Archive
	producer producers.MessagePublisher
	logger   *slog.Logger
}

func NewEventRelay(archive outbox.Archive, producer producers.MessagePublisher, logger *slog.Logger) *EventRelay {
	return &EventRelay{
		archive:  archive,
		producer: producer,
		logger:   logger,
	}
}

func (r *EventRelay) Publish(ctx context.Context, message *outbox.Message) error {
	event, err := message.Event()
	if err != nil {
		return fmt.Errorf("%w: outbox %d: %v", ErrUndecodable, message.ID, err)
	}

	logger := r.logger.With("outbox_id", message.ID, "event_id", event.ID.String(), "event_type", string(event.Type))
	if event.Audit != nil && event.Audit.CorrelationID != "" {
		logger = logger.With("correlation_id", event.Audit.CorrelationID)
	}

	if err := r.archive.Store(ctx, event); err != nil {
		return fmt.Errorf("failed to archive event %s: %w", event.ID, err)
	}

	headers := []kafka.Header{
		{Key: "event-id", Value: []byte(event.ID.String())},
		{Key: "event-type", Value: []byte(event.Type)},
	}
	if err := r.producer.Publish(ctx, message.AggregateID.String(), message.Payload, headers...); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}

	logger.Debug("Ledger event relayed")
	return nil
}

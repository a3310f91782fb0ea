package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/corebank-ledger/internal/domain/outbox"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultEventsCollection is used when no collection name is configured
const DefaultEventsCollection = "ledger_events"

// collection is the part of *mongo.Collection the repository uses
type collection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// eventDocument keeps ids as strings so the archive is readable from the
// mongo shell; the full event travels as its JSON payload.
type eventDocument struct {
	EventID       string    `bson:"_id"`
	EventType     string    `bson:"event_type"`
	AccountIDs    []string  `bson:"account_ids"`
	TransactionID string    `bson:"transaction_id,omitempty"`
	ActorID       string    `bson:"actor_id"`
	Payload       string    `bson:"payload"`
	OccurredAt    time.Time `bson:"occurred_at"`
	ArchivedAt    time.Time `bson:"archived_at"`
}

func newEventDocument(event *outbox.Event) (*eventDocument, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	doc := &eventDocument{
		EventID:    event.ID.String(),
		EventType:  string(event.Type),
		AccountIDs: make([]string, 0, len(event.AccountIDs)),
		Payload:    string(payload),
		OccurredAt: event.OccurredAt,
		ArchivedAt: time.Now().UTC(),
	}
	for _, id := range event.AccountIDs {
		doc.AccountIDs = append(doc.AccountIDs, id.String())
	}
	if event.Transaction != nil {
		doc.TransactionID = event.Transaction.ID.String()
	}
	if event.Audit != nil {
		doc.ActorID = event.Audit.ActorID
	}
	return doc, nil
}

// EventRepository implements outbox.Archive for MongoDB
type EventRepository struct {
	collection collection
	logger     *slog.Logger
}

func NewEventRepository(logger *slog.Logger, db *mongo.Database, collectionName string) outbox.Archive {
	if collectionName == "" {
		collectionName = DefaultEventsCollection
	}
	return &EventRepository{
		collection: db.Collection(collectionName),
		logger:     logger,
	}
}

// EnsureEventIndexes creates the index behind per-account history reads.
func EnsureEventIndexes(ctx context.Context, db *mongo.Database, collectionName string) error {
	if collectionName == "" {
		collectionName = DefaultEventsCollection
	}
	_, err := db.Collection(collectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "account_ids", Value: 1}, {Key: "occurred_at", Value: -1}},
		Options: options.Index().SetName("account_history"),
	})
	if err != nil {
		return fmt.Errorf("failed to create event archive index: %w", err)
	}
	return nil
}

// Store upserts the event by id. $setOnInsert leaves an archived event
// untouched when the poller relays it again after a crash.
func (r *EventRepository) Store(ctx context.Context, event *outbox.Event) error {
	doc, err := newEventDocument(event)
	if err != nil {
		return fmt.Errorf("failed to encode ledger event: %w", err)
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": doc.EventID},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		r.logger.Error("Failed to archive ledger event",
			"event_id", doc.EventID,
			"event_type", doc.EventType,
			"error", err)
		return fmt.Errorf("failed to archive ledger event: %w", err)
	}
	return nil
}

func (r *EventRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*outbox.Event, error) {
	filter := bson.M{"account_ids": accountID.String()}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get archived events",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []eventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode archived events",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode archived events: %w", err)
	}

	events := make([]*outbox.Event, 0, len(docs))
	for _, doc := range docs {
		var event outbox.Event
		if err := json.Unmarshal([]byte(doc.Payload), &event); err != nil {
			return nil, fmt.Errorf("archived event %s: %w", doc.EventID, err)
		}
		events = append(events, &event)
	}
	return events, nil
}

func (r *EventRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"account_ids": accountID.String()})
	if err != nil {
		r.logger.Error("Failed to count archived events",
			"account_id", accountID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count archived events: %w", err)
	}
	return count, nil
}

package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/corebank-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// MessageProducer writes JSON messages to a single topic synchronously, so a
// nil error means the broker acknowledged the write.
type MessageProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewCommandProducer publishes ledger commands for the worker.
func NewCommandProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*MessageProducer, error) {
	return newMessageProducer(ctx, logger, cfg, cfg.CommandTopic, kafka.RequireOne)
}

// NewEventProducer publishes ledger events relayed from the outbox. Events
// wait for every in-sync replica because the outbox row is marked processed
// right after.
func NewEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*MessageProducer, error) {
	return newMessageProducer(ctx, logger, cfg, cfg.EventTopic, kafka.RequireAll)
}

func newMessageProducer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig, topic string, acks kafka.RequiredAcks) (*MessageProducer, error) {
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is not configured")
	}
	if err := dialAndEnsureTopic(topic, cfg, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure topic %s exists: %w", topic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // same key, same partition: per-account ordering
		RequiredAcks: acks,
		WriteTimeout: cfg.MaxWait,
	}
	return NewMessageProducerWithWriter(logger, writer, topic), nil
}

func NewMessageProducerWithWriter(logger *slog.Logger, writer KafkaWriter, topic string) *MessageProducer {
	return &MessageProducer{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

func (p *MessageProducer) Publish(ctx context.Context, key string, value interface{}, headers ...kafka.Header) error {
	var payload []byte
	switch v := value.(type) {
	case []byte:
		payload = v
	case json.RawMessage:
		payload = v
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal message for %s: %w", p.topic, err)
		}
		payload = encoded
	}

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   payload,
		Headers: headers,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published message", "topic", p.topic, "key", key)
	return nil
}

func (p *MessageProducer) Close() error {
	p.logger.Info("Closing Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}

package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corebank-ledger/internal/config"
	"github.com/corebank-ledger/internal/domain/outbox"
	"github.com/corebank-ledger/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

// TxRunner runs fn inside one database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// BatchResult counts what one poll did
type BatchResult struct {
	Published int
	Failed    int
}

// Poller relays pending outbox messages. Each batch is claimed and settled
// inside one transaction, so concurrent pollers never pick the same rows.
type Poller struct {
	db               TxRunner
	outboxRepo       outbox.Repository
	publisher        EventPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	db TxRunner,
	outboxRepo outbox.Repository,
	publisher EventPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		db:               db,
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start polls until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopping")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("Failed to process outbox batch", "error", err)
			}
		}
	}
}

// ProcessBatch relays up to batchSize pending messages.
func (p *Poller) ProcessBatch(ctx context.Context) (BatchResult, error) {
	var result BatchResult
	err := p.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := p.outboxRepo.WithTx(tx)
		messages, err := repo.GetPending(ctx, p.batchSize)
		if err != nil {
			return fmt.Errorf("failed to claim pending outbox messages: %w", err)
		}
		if len(messages) == 0 {
			return nil
		}
		p.logger.Debug("Claimed pending outbox messages", "count", len(messages))

		for _, msg := range messages {
			if p.relay(ctx, repo, msg) {
				result.Published++
			} else {
				result.Failed++
			}
		}
		return nil
	})
	if err != nil {
		return BatchResult{}, err
	}
	if result.Published+result.Failed > 0 {
		p.logger.Info("Outbox batch processed", "published", result.Published, "failed", result.Failed)
	}
	return result, nil
}

func (p *Poller) relay(ctx context.Context, repo outbox.Repository, msg *outbox.Message) bool {
	logger := p.logger.With("outbox_id", msg.ID, "event_id", msg.EventID.String(), "event_type", string(msg.EventType))

	err := p.publisher.Publish(ctx, msg)
	if err == nil {
		if err := repo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusProcessed); err != nil {
			logger.Error("Event relayed but outbox message could not be marked processed", "error", err)
		}
		return true
	}

	if errors.Is(err, ErrUndecodable) {
		logger.Error("Dropping undecodable outbox message", "error", err)
		p.markFailed(ctx, repo, msg, logger)
		return false
	}

	logger.Warn("Failed to relay outbox message", "attempts", msg.Attempts, "error", err)
	if err := repo.IncrementAttempts(ctx, msg.ID); err != nil {
		logger.Error("Failed to increment outbox message attempts", "error", err)
		return false
	}
	if msg.Attempts+1 >= p.maxRetryAttempts {
		logger.Warn("Max relay attempts reached", "attempts", msg.Attempts+1)
		p.markFailed(ctx, repo, msg, logger)
	}
	return false
}

func (p *Poller) markFailed(ctx context.Context, repo outbox.Repository, msg *outbox.Message, logger *slog.Logger) {
	if err := repo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); err != nil {
		logger.Error("Failed to mark outbox message as FAILED_TO_PUBLISH", "error", err)
	}
}

package service

import (
	"context"
	"log/slog"

	"github.com/corebank-ledger/internal/domain/shared"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/corebank-ledger/internal/platform/messaging/producers"
)

// CommandServiceImpl validates commands and hands them to Kafka
type CommandServiceImpl struct {
	producer producers.MessagePublisher
	logger   *slog.Logger
}

func NewCommandService(logger *slog.Logger, producer producers.MessagePublisher) CommandService {
	return &CommandServiceImpl{producer: producer, logger: logger}
}

// Submit publishes cmd keyed by its source account, so commands against one
// account are consumed in submission order.
func (s *CommandServiceImpl) Submit(ctx context.Context, cmd *shared.LedgerCommand) error {
	if err := cmd.Validate(); err != nil {
		return ledger.ErrInvalidOperation{Reason: err.Error(), Err: err}
	}

	if err := s.producer.Publish(ctx, cmd.PartitionKey(), cmd); err != nil {
		s.logger.Error("Failed to publish ledger command",
			"transaction_id", cmd.TransactionID.String(),
			"type", string(cmd.Type),
			"error", err,
		)
		return ledger.ErrStorageFailure{Op: "queue ledger command", Err: err}
	}

	s.logger.Info("Ledger command queued",
		"transaction_id", cmd.TransactionID.String(),
		"type", string(cmd.Type),
		"partition_key", cmd.PartitionKey(),
		"actor_id", cmd.ActorID,
	)
	return nil
}

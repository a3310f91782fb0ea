package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corebank-ledger/internal/domain/shared"
	"github.com/corebank-ledger/internal/ledger_worker/service"
	"github.com/corebank-ledger/internal/platform/messaging/producers"
)

// CommandHandler turns command topic messages into CommandService calls.
type CommandHandler struct {
	commands service.CommandService
	dlq      producers.DeadLetterPublisher
	logger   *slog.Logger
}

func NewCommandHandler(logger *slog.Logger, commands service.CommandService, dlq producers.DeadLetterPublisher) *CommandHandler {
	return &CommandHandler{
		commands: commands,
		dlq:      dlq,
		logger:   logger,
	}
}

// HandleMessage returns nil once the message is settled, including when it
// was parked in the DLQ. An error leaves the offset uncommitted.
func (h *CommandHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var cmd shared.LedgerCommand
	if err := json.Unmarshal(value, &cmd); err != nil {
		h.logger.Error("Failed to unmarshal ledger command", "message_key", string(key), "error", err)
		return h.park(ctx, key, value, fmt.Sprintf("undecodable ledger command: %v", err))
	}

	logger := h.logger.With("transaction_id", cmd.TransactionID.String())
	if cmd.CorrelationID != "" {
		logger = logger.With("correlation_id", cmd.CorrelationID)
	}
	logger.Debug("Received ledger command", "type", string(cmd.Type))

	err := h.commands.Execute(ctx, &cmd)
	if err == nil {
		return nil
	}
	if errors.Is(err, service.ErrUnprocessable{}) {
		return h.park(ctx, key, value, err.Error())
	}
	// shutdown interrupted the command; it is redelivered after restart
	logger.Warn("Ledger command interrupted", "error", err)
	return fmt.Errorf("processing ledger command %s: %w", cmd.TransactionID, err)
}

func (h *CommandHandler) park(ctx context.Context, key, value []byte, reason string) error {
	if err := h.dlq.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		h.logger.Error("Failed to publish ledger command to DLQ",
			"message_key", string(key),
			"reason", reason,
			"error", err,
		)
		return fmt.Errorf("failed to park ledger command: %w", err)
	}
	return nil
}

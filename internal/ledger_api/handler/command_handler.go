package handler

import (
	"log/slog"
	"time"

	"github.com/corebank-ledger/internal/domain/shared"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger_api/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const statusQueued = "QUEUED"

// CommandHandler accepts ledger commands for asynchronous processing
type CommandHandler struct {
	commandService service.CommandService
	requireActive  bool
	logger         *slog.Logger
}

func NewCommandHandler(logger *slog.Logger, commandService service.CommandService, requireActive bool) *CommandHandler {
	return &CommandHandler{
		commandService: commandService,
		requireActive:  requireActive,
		logger:         logger,
	}
}

// Submit queues the command and answers 202 with the transaction id the
// worker will record it under. Resubmitting with the same transaction_id is safe.
func (h *CommandHandler) Submit(c *gin.Context) {
	var req SubmitCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	from, err := parseOptionalUUID(req.FromAccountID, "from_account_id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}
	to, err := parseOptionalUUID(req.ToAccountID, "to_account_id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	meta := requestMeta(c, h.requireActive)
	cmd := &shared.LedgerCommand{
		TransactionID: uuid.New(),
		Type:          transaction.Type(req.Type),
		FromAccountID: from,
		ToAccountID:   to,
		Description:   req.Description,
		ActorID:       meta.ActorID,
		CorrelationID: meta.CorrelationID,
		RequireActive: meta.RequireActive,
		Timestamp:     time.Now().UTC(),
	}
	if req.TransactionID != "" {
		cmd.TransactionID = uuid.MustParse(req.TransactionID)
	}
	if cmd.Type != transaction.TypeInterest {
		cmd.Amount = req.Amount
		cmd.Currency = req.Currency
	}

	if err := h.commandService.Submit(c.Request.Context(), cmd); err != nil {
		RespondLedgerError(c, h.logger, err)
		return
	}

	RespondAccepted(c, CommandAcceptedResponse{
		TransactionID: cmd.TransactionID.String(),
		Status:        statusQueued,
	})
}

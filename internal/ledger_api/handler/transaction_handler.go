package handler

import (
	"log/slog"

	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger_api/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler posts movements synchronously and serves the transaction ledger
type TransactionHandler struct {
	transactionService service.TransactionService
	requireActive      bool
	logger             *slog.Logger
}

func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService, requireActive bool) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		requireActive:      requireActive,
		logger:             logger,
	}
}

// Create posts a deposit, withdrawal or transfer and answers with its record
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
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
	amount, err := parsePositiveAmount(req.Amount, req.Currency)
	if err != nil {
		RespondBadRequest(c, "Invalid amount: "+err.Error())
		return
	}

	meta := requestMeta(c, h.requireActive)
	meta.Description = req.Description
	if req.TransactionID != "" {
		meta.TransactionID = uuid.MustParse(req.TransactionID)
	}

	record, err := h.transactionService.Post(c.Request.Context(), service.PostingInput{
		Type:   transaction.Type(req.Type),
		From:   from,
		To:     to,
		Amount: amount,
	}, meta)
	if err != nil {
		RespondLedgerError(c, h.logger, err)
		return
	}
	RespondCreated(c, mapRecordToResponse(record))
}

func (h *TransactionHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Warn("Invalid transaction ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	record, err := h.transactionService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		RespondLedgerError(c, h.logger, err)
		return
	}
	RespondOK(c, mapRecordToResponse(record))
}

// GetByAccountID pages through the history of an account, newest first
func (h *TransactionHandler) GetByAccountID(c *gin.Context) {
	idParam := c.Param("id")
	accountID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Warn("Invalid account ID", "account_id", idParam, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var params HistoryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	from, to, err := parseDateRange(params.DateRangeParams)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	records, total, err := h.transactionService.ListByAccount(c.Request.Context(), service.HistoryQuery{
		AccountID: accountID,
		From:      from,
		To:        to,
		Page:      params.Page,
		PerPage:   params.PerPage,
	})
	if err != nil {
		RespondLedgerError(c, h.logger, err)
		return
	}
	RespondWithPaginatedData(c, mapRecordsToResponse(records), params.Page, params.PerPage, int(total))
}

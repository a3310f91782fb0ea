package handler

import (
	"log/slog"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/ledger_api/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountHandler serves the account lifecycle routes
type AccountHandler struct {
	accountService service.AccountService
	requireActive  bool
	logger         *slog.Logger
}

func NewAccountHandler(logger *slog.Logger, accountService service.AccountService, requireActive bool) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		requireActive:  requireActive,
		logger:         logger,
	}
}

// Create opens an account and posts its initial deposit, if one was given
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	in, err := openAccountInput(req)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	acc, record, err := h.accountService.OpenAccount(c.Request.Context(), in, requestMeta(c, h.requireActive))
	if err != nil {
		if acc != nil {
			h.logger.Warn("Account opened without its initial deposit", "account_id", acc.ID.String(), "error", err)
		}
		RespondLedgerError(c, h.logger, err)
		return
	}

	response := OpenAccountResponse{Account: mapAccountToResponse(acc)}
	if record != nil {
		deposit := mapRecordToResponse(record)
		response.InitialDeposit = &deposit
	}
	RespondCreated(c, response)
}

func openAccountInput(req CreateAccountRequest) (service.OpenAccountInput, error) {
	in := service.OpenAccountInput{
		CustomerID: req.CustomerID,
		Type:       req.AccountType,
		Currency:   req.Currency,
	}
	if req.InterestRate != "" {
		rate, err := decimal.NewFromString(req.InterestRate)
		if err != nil {
			return in, err
		}
		in.InterestRate = rate
	}
	if req.CreditLimit != "" {
		limit, err := parsePositiveAmount(req.CreditLimit, req.Currency)
		if err != nil {
			return in, err
		}
		in.CreditLimit = &limit
	}
	if req.InitialDeposit != "" {
		deposit, err := money.Parse(req.InitialDeposit, req.Currency)
		if err != nil {
			return in, err
		}
		if deposit.IsNegative() {
			return in, errNonPositiveAmount
		}
		in.InitialDeposit = &deposit
	}
	return in, nil
}

func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	acc, err := h.accountService.GetAccount(c.Request.Context(), id)
	if err != nil {
		RespondLedgerError(c, h.logger, err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

// UpdateStatus moves the account through its lifecycle
func (h *AccountHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.ChangeStatus(c.Request.Context(), id, account.Status(req.Status), req.Reason, requestMeta(c, h.requireActive))
	if err != nil {
		RespondLedgerError(c, h.logger, err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

// PostInterest credits one month of interest to the account. Like the
// scheduled batch it accrues on FROZEN and DORMANT accounts.
func (h *AccountHandler) PostInterest(c *gin.Context) {
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	record, err := h.accountService.PostInterest(c.Request.Context(), id, requestMeta(c, false))
	if err != nil {
		RespondLedgerError(c, h.logger, err)
		return
	}

	if record == nil {
		RespondOK(c, InterestResponse{Posted: false})
		return
	}
	posted := mapRecordToResponse(record)
	RespondCreated(c, InterestResponse{Posted: true, Transaction: &posted})
}

// ListEvents pages through the archived events of the account
func (h *AccountHandler) ListEvents(c *gin.Context) {
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	events, total, err := h.accountService.ListEvents(c.Request.Context(), id, pagination.Page, pagination.PerPage)
	if err != nil {
		RespondLedgerError(c, h.logger, err)
		return
	}
	RespondWithPaginatedData(c, events, pagination.Page, pagination.PerPage, int(total))
}

func (h *AccountHandler) accountID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Warn("Invalid account ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return uuid.Nil, false
	}
	return id, true
}

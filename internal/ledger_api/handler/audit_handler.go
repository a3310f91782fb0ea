package handler

import (
	"log/slog"

	"github.com/corebank-ledger/internal/domain/audit"
	"github.com/corebank-ledger/internal/ledger_api/service"
	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	logger       *slog.Logger
}

func NewAuditHandler(logger *slog.Logger, auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService, logger: logger}
}

// List answers GET /audit with one page of the trail in canonical order
func (h *AuditHandler) List(c *gin.Context) {
	var params AuditParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	from, to, err := parseDateRange(params.DateRangeParams)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	filter := audit.Filter{
		ActorID:      params.ActorID,
		ResourceType: audit.ResourceType(params.ResourceType),
		ResourceID:   params.ResourceID,
		From:         from,
		To:           to,
	}
	entries, total, err := h.auditService.List(c.Request.Context(), filter, params.Page, params.PerPage)
	if err != nil {
		RespondLedgerError(c, h.logger, err)
		return
	}

	response := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, mapAuditEntryToResponse(entry))
	}
	RespondWithPaginatedData(c, response, params.Page, params.PerPage, int(total))
}

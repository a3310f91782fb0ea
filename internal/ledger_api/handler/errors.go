package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/gin-gonic/gin"
)

// retryAfterSeconds is sent with 503 answers to lock timeouts
const retryAfterSeconds = "1"

// RespondLedgerError maps an error kind onto a status code and envelope.
func RespondLedgerError(c *gin.Context, logger *slog.Logger, err error) {
	kind := ledger.KindOf(err)
	info := &ErrorInfo{
		Code:      string(kind),
		Message:   err.Error(),
		Retryable: kind.Retryable(),
	}

	switch kind {
	case ledger.KindInsufficientFunds:
		var insufficient account.ErrInsufficientFunds
		errors.As(err, &insufficient)
		info.Details = map[string]interface{}{
			"account_id":        insufficient.AccountID.String(),
			"available_balance": insufficient.Available,
			"requested_amount":  insufficient.Requested,
		}
		RespondWithError(c, http.StatusBadRequest, info)
	case ledger.KindAccountNotFound:
		RespondWithError(c, http.StatusNotFound, info)
	case ledger.KindInvalidAccountStatus:
		var status account.ErrInvalidAccountStatus
		errors.As(err, &status)
		info.Details = map[string]interface{}{
			"account_id":     status.AccountID.String(),
			"current_status": string(status.Status),
		}
		RespondWithError(c, http.StatusBadRequest, info)
	case ledger.KindInvalidOperation:
		RespondWithError(c, http.StatusBadRequest, info)
	case ledger.KindLockTimeout:
		c.Header("Retry-After", retryAfterSeconds)
		RespondWithError(c, http.StatusServiceUnavailable, info)
	case ledger.KindStorageFailure:
		logger.Error("Ledger storage failure", "error", err, "path", c.Request.URL.Path)
		info.Message = "The ledger is temporarily unavailable"
		RespondWithError(c, http.StatusServiceUnavailable, info)
	default:
		if errors.Is(err, transaction.ErrRecordNotFound{}) {
			RespondNotFound(c, "Transaction not found")
			return
		}
		logger.Error("Unhandled error", "error", err, "path", c.Request.URL.Path)
		RespondInternalError(c)
	}
}

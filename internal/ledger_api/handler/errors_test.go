package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondLedgerError(t *testing.T) {
	accountID := uuid.New()

	tests := []struct {
		name          string
		err           error
		wantStatus    int
		wantCode      string
		wantRetryable bool
		wantHeader    string
		checkDetails  func(t *testing.T, details map[string]interface{})
	}{
		{
			name: "InsufficientFunds",
			err: account.ErrInsufficientFunds{
				AccountID: accountID,
				Available: money.MustParse("25.00", "USD"),
				Requested: money.MustParse("40.00", "USD"),
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INSUFFICIENT_FUNDS",
			checkDetails: func(t *testing.T, details map[string]interface{}) {
				available := details["available_balance"].(map[string]interface{})
				requested := details["requested_amount"].(map[string]interface{})
				assert.Equal(t, "25.00", available["amount"])
				assert.Equal(t, "40.00", requested["amount"])
				assert.Equal(t, "USD", requested["currency"])
			},
		},
		{
			name:       "AccountNotFound",
			err:        account.ErrAccountNotFound{AccountID: accountID},
			wantStatus: http.StatusNotFound,
			wantCode:   "ACCOUNT_NOT_FOUND",
		},
		{
			name:       "InvalidAccountStatus",
			err:        account.ErrInvalidAccountStatus{AccountID: accountID, Status: account.StatusFrozen},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_ACCOUNT_STATUS",
			checkDetails: func(t *testing.T, details map[string]interface{}) {
				assert.Equal(t, "FROZEN", details["current_status"])
			},
		},
		{
			name:       "InvalidOperation",
			err:        ledger.ErrInvalidOperation{Reason: "self transfer", Err: transaction.ErrSelfTransfer},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_OPERATION",
		},
		{
			name:          "LockTimeout",
			err:           ledger.ErrLockTimeout{AccountIDs: []uuid.UUID{accountID}},
			wantStatus:    http.StatusServiceUnavailable,
			wantCode:      "LOCK_TIMEOUT",
			wantRetryable: true,
			wantHeader:    "1",
		},
		{
			name:          "StorageFailure",
			err:           ledger.ErrStorageFailure{Op: "commit", Err: errors.New("connection reset")},
			wantStatus:    http.StatusServiceUnavailable,
			wantCode:      "STORAGE_FAILURE",
			wantRetryable: true,
		},
		{
			name:       "RecordNotFound",
			err:        transaction.ErrRecordNotFound{TransactionID: uuid.New()},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "Unclassified",
			err:        errors.New("mystery"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/fail", func(c *gin.Context) {
				RespondLedgerError(c, discardLogger(), tt.err)
			})

			rr := doJSON(t, router, http.MethodGet, "/fail", nil)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantHeader, rr.Header().Get("Retry-After"))

			env := decode(t, rr, nil)
			assert.False(t, env.Success)
			assert.Equal(t, "corr-test", env.CorrelationID)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.Equal(t, tt.wantRetryable, env.Error.Retryable)
			if tt.checkDetails != nil {
				tt.checkDetails(t, env.Error.Details)
			}
		})
	}
}

func TestNewPaginatedResponse(t *testing.T) {
	response := NewPaginatedResponse([]int{1, 2}, 2, 10, 21)
	assert.True(t, response.Success)
	assert.Equal(t, &MetaInfo{Page: 2, PerPage: 10, TotalPages: 3, TotalItems: 21}, response.Meta)

	response = NewPaginatedResponse([]int{}, 1, 10, 0)
	assert.Equal(t, 0, response.Meta.TotalPages)
}

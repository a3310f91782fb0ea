package handler

import (
	"net/http"
	"testing"

	"github.com/corebank-ledger/internal/domain/shared"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func commandRouter(svc *MockCommandService) *gin.Engine {
	h := NewCommandHandler(discardLogger(), svc, true)
	router := setupTestRouter()
	router.POST("/commands", h.Submit)
	return router
}

func TestCommandHandler_Submit(t *testing.T) {
	from, to := uuid.New(), uuid.New()

	t.Run("Accepted", func(t *testing.T) {
		svc := new(MockCommandService)
		txID := uuid.New()
		svc.On("Submit", mock.Anything, mock.MatchedBy(func(cmd *shared.LedgerCommand) bool {
			return cmd.TransactionID == txID &&
				cmd.Type == transaction.TypeTransfer &&
				*cmd.FromAccountID == from && *cmd.ToAccountID == to &&
				cmd.Amount == "19.99" && cmd.Currency == "USD" &&
				cmd.ActorID == testActor && cmd.CorrelationID == "corr-test" && cmd.RequireActive
		})).Return(nil).Once()

		rr := doJSON(t, commandRouter(svc), http.MethodPost, "/commands", SubmitCommandRequest{
			TransactionID: txID.String(),
			Type:          "TRANSFER",
			FromAccountID: from.String(),
			ToAccountID:   to.String(),
			Amount:        "19.99",
			Currency:      "USD",
		})

		assert.Equal(t, http.StatusAccepted, rr.Code)
		var body CommandAcceptedResponse
		decode(t, rr, &body)
		assert.Equal(t, txID.String(), body.TransactionID)
		assert.Equal(t, "QUEUED", body.Status)
		svc.AssertExpectations(t)
	})

	t.Run("InterestDropsAmount", func(t *testing.T) {
		svc := new(MockCommandService)
		svc.On("Submit", mock.Anything, mock.MatchedBy(func(cmd *shared.LedgerCommand) bool {
			return cmd.Type == transaction.TypeInterest && cmd.Amount == "" && cmd.TransactionID != uuid.Nil
		})).Return(nil).Once()

		rr := doJSON(t, commandRouter(svc), http.MethodPost, "/commands", SubmitCommandRequest{
			Type: "INTEREST", ToAccountID: to.String(), Amount: "5.00", Currency: "USD",
		})

		assert.Equal(t, http.StatusAccepted, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("InvalidCommand", func(t *testing.T) {
		svc := new(MockCommandService)
		svc.On("Submit", mock.Anything, mock.Anything).
			Return(ledger.ErrInvalidOperation{Reason: "bad shape", Err: transaction.ErrMissingSource}).Once()

		rr := doJSON(t, commandRouter(svc), http.MethodPost, "/commands", SubmitCommandRequest{
			Type: "WITHDRAWAL", ToAccountID: to.String(), Amount: "5.00", Currency: "USD",
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		env := decode(t, rr, nil)
		assert.Equal(t, "INVALID_OPERATION", env.Error.Code)
	})

	t.Run("BrokerDown", func(t *testing.T) {
		svc := new(MockCommandService)
		svc.On("Submit", mock.Anything, mock.Anything).Return(ledger.ErrStorageFailure{Op: "queue ledger command"}).Once()

		rr := doJSON(t, commandRouter(svc), http.MethodPost, "/commands", SubmitCommandRequest{
			Type: "DEPOSIT", ToAccountID: to.String(), Amount: "5.00", Currency: "USD",
		})

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		env := decode(t, rr, nil)
		assert.True(t, env.Error.Retryable)
	})

	t.Run("UnknownType", func(t *testing.T) {
		svc := new(MockCommandService)
		rr := doJSON(t, commandRouter(svc), http.MethodPost, "/commands", SubmitCommandRequest{Type: "REFUND"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/audit"
	"github.com/corebank-ledger/internal/domain/outbox"
	"github.com/corebank-ledger/internal/domain/shared"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/corebank-ledger/internal/ledger_api/middleware"
	"github.com/corebank-ledger/internal/ledger_api/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testActor = "teller-7"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID(), middleware.Actor())
	return r
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.ActorIDHeader, testActor)
	req.Header.Set(middleware.CorrelationIDHeader, "corr-test")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

type envelope struct {
	Success       bool            `json:"success"`
	Data          json.RawMessage `json:"data"`
	Error         *ErrorInfo      `json:"error"`
	CorrelationID string          `json:"correlation_id"`
	Meta          *MetaInfo       `json:"meta"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

// matchMeta matches the engine meta a handler builds for the test request
func matchMeta(requireActive bool) interface{} {
	return mock.MatchedBy(func(m ledger.Meta) bool {
		return m.ActorID == testActor && m.CorrelationID == "corr-test" && m.RequireActive == requireActive
	})
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) OpenAccount(ctx context.Context, in service.OpenAccountInput, meta ledger.Meta) (*account.Account, *transaction.Record, error) {
	args := m.Called(ctx, in, meta)
	acc, _ := args.Get(0).(*account.Account)
	record, _ := args.Get(1).(*transaction.Record)
	return acc, record, args.Error(2)
}

func (m *MockAccountService) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	acc, _ := args.Get(0).(*account.Account)
	return acc, args.Error(1)
}

func (m *MockAccountService) ChangeStatus(ctx context.Context, id uuid.UUID, status account.Status, reason string, meta ledger.Meta) (*account.Account, error) {
	args := m.Called(ctx, id, status, reason, meta)
	acc, _ := args.Get(0).(*account.Account)
	return acc, args.Error(1)
}

func (m *MockAccountService) PostInterest(ctx context.Context, id uuid.UUID, meta ledger.Meta) (*transaction.Record, error) {
	args := m.Called(ctx, id, meta)
	record, _ := args.Get(0).(*transaction.Record)
	return record, args.Error(1)
}

func (m *MockAccountService) ListEvents(ctx context.Context, id uuid.UUID, page, perPage int) ([]*outbox.Event, int64, error) {
	args := m.Called(ctx, id, page, perPage)
	events, _ := args.Get(0).([]*outbox.Event)
	return events, args.Get(1).(int64), args.Error(2)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) Post(ctx context.Context, in service.PostingInput, meta ledger.Meta) (*transaction.Record, error) {
	args := m.Called(ctx, in, meta)
	record, _ := args.Get(0).(*transaction.Record)
	return record, args.Error(1)
}

func (m *MockTransactionService) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Record, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(*transaction.Record)
	return record, args.Error(1)
}

func (m *MockTransactionService) ListByAccount(ctx context.Context, q service.HistoryQuery) ([]*transaction.Record, int64, error) {
	args := m.Called(ctx, q)
	records, _ := args.Get(0).([]*transaction.Record)
	return records, args.Get(1).(int64), args.Error(2)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) List(ctx context.Context, filter audit.Filter, page, perPage int) ([]*audit.Entry, int64, error) {
	args := m.Called(ctx, filter, page, perPage)
	entries, _ := args.Get(0).([]*audit.Entry)
	return entries, args.Get(1).(int64), args.Error(2)
}

type MockCommandService struct {
	mock.Mock
}

func (m *MockCommandService) Submit(ctx context.Context, cmd *shared.LedgerCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

var (
	_ service.AccountService     = (*MockAccountService)(nil)
	_ service.TransactionService = (*MockTransactionService)(nil)
	_ service.AuditService       = (*MockAuditService)(nil)
	_ service.CommandService     = (*MockCommandService)(nil)
)

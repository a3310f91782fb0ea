package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/audit"
	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/domain/outbox"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) Open(ctx context.Context, p ledger.OpenParams, meta ledger.Meta) (*account.Account, error) {
	args := m.Called(ctx, p, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockLifecycle) ChangeStatus(ctx context.Context, id uuid.UUID, next account.Status, reason string, meta ledger.Meta) (*account.Account, error) {
	args := m.Called(ctx, id, next, reason, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) record(args mock.Arguments) (*transaction.Record, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Record), args.Error(1)
}

func (m *MockEngine) Deposit(ctx context.Context, accountID uuid.UUID, amount money.Money, meta ledger.Meta) (*transaction.Record, error) {
	return m.record(m.Called(ctx, accountID, amount, meta))
}

func (m *MockEngine) Withdraw(ctx context.Context, accountID uuid.UUID, amount money.Money, meta ledger.Meta) (*transaction.Record, error) {
	return m.record(m.Called(ctx, accountID, amount, meta))
}

func (m *MockEngine) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount money.Money, meta ledger.Meta) (*transaction.Record, error) {
	return m.record(m.Called(ctx, fromID, toID, amount, meta))
}

func (m *MockEngine) PostInterest(ctx context.Context, accountID uuid.UUID, meta ledger.Meta) (*transaction.Record, error) {
	return m.record(m.Called(ctx, accountID, meta))
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, acc *account.Account) error {
	return m.Called(ctx, acc).Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, acc *account.Account) error {
	return m.Called(ctx, acc).Error(0)
}

func (m *MockAccountRepository) UpdateStatus(ctx context.Context, acc *account.Account) error {
	return m.Called(ctx, acc).Error(0)
}

func (m *MockAccountRepository) ListInterestBearing(ctx context.Context, limit, offset int) ([]*account.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return m
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, record *transaction.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Record), args.Error(1)
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, filter transaction.ListFilter, limit, offset int) ([]*transaction.Record, error) {
	args := m.Called(ctx, accountID, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Record), args.Error(1)
}

func (m *MockTransactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID, filter transaction.ListFilter) (int64, error) {
	args := m.Called(ctx, accountID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return m
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, entry *audit.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Entry, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Entry), args.Error(1)
}

func (m *MockAuditRepository) Count(ctx context.Context, filter audit.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuditRepository) WithTx(tx pgx.Tx) audit.Repository {
	return m
}

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Store(ctx context.Context, event *outbox.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockArchive) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*outbox.Event, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Event), args.Error(1)
}

func (m *MockArchive) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}, headers ...kafka.Header) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockMessagePublisher) Close() error {
	return m.Called().Error(0)
}

var (
	_ account.Repository     = (*MockAccountRepository)(nil)
	_ transaction.Repository = (*MockTransactionRepository)(nil)
	_ audit.Repository       = (*MockAuditRepository)(nil)
	_ outbox.Archive         = (*MockArchive)(nil)
	_ ledger.Service         = (*MockEngine)(nil)
)

package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/domain/shared"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

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

type MockRecordFinder struct {
	mock.Mock
}

func (m *MockRecordFinder) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Record), args.Error(1)
}

type MockCommandService struct {
	mock.Mock
}

func (m *MockCommandService) Execute(ctx context.Context, cmd *shared.LedgerCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

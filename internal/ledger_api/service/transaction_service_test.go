package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTransactionServiceImpl_Post(t *testing.T) {
	ctx := context.Background()
	from, to := uuid.New(), uuid.New()
	amount := money.MustParse("40.00", "USD")
	meta := ledger.Meta{ActorID: "teller"}
	record := &transaction.Record{ID: uuid.New()}

	t.Run("Deposit", func(t *testing.T) {
		engine := new(MockEngine)
		svc := NewTransactionService(discardLogger(), engine, new(MockTransactionRepository), new(MockAccountRepository))
		engine.On("Deposit", ctx, to, amount, meta).Return(record, nil).Once()

		got, err := svc.Post(ctx, PostingInput{Type: transaction.TypeDeposit, To: &to, Amount: amount}, meta)

		require.NoError(t, err)
		assert.Same(t, record, got)
		engine.AssertExpectations(t)
	})

	t.Run("Withdrawal", func(t *testing.T) {
		engine := new(MockEngine)
		svc := NewTransactionService(discardLogger(), engine, new(MockTransactionRepository), new(MockAccountRepository))
		engine.On("Withdraw", ctx, from, amount, meta).Return(record, nil).Once()

		_, err := svc.Post(ctx, PostingInput{Type: transaction.TypeWithdrawal, From: &from, Amount: amount}, meta)

		require.NoError(t, err)
		engine.AssertExpectations(t)
	})

	t.Run("TransferPassesEngineErrorThrough", func(t *testing.T) {
		engine := new(MockEngine)
		svc := NewTransactionService(discardLogger(), engine, new(MockTransactionRepository), new(MockAccountRepository))
		insufficient := account.ErrInsufficientFunds{AccountID: from}
		engine.On("Transfer", ctx, from, to, amount, meta).Return(nil, insufficient).Once()

		_, err := svc.Post(ctx, PostingInput{Type: transaction.TypeTransfer, From: &from, To: &to, Amount: amount}, meta)

		assert.Equal(t, ledger.KindInsufficientFunds, ledger.KindOf(err))
		engine.AssertExpectations(t)
	})

	t.Run("SelfTransferReachesEngine", func(t *testing.T) {
		engine := new(MockEngine)
		svc := NewTransactionService(discardLogger(), engine, new(MockTransactionRepository), new(MockAccountRepository))
		invalid := ledger.ErrInvalidOperation{Reason: "self", Err: transaction.ErrSelfTransfer}
		engine.On("Transfer", ctx, from, from, amount, meta).Return(nil, invalid).Once()

		_, err := svc.Post(ctx, PostingInput{Type: transaction.TypeTransfer, From: &from, To: &from, Amount: amount}, meta)

		assert.ErrorIs(t, err, transaction.ErrSelfTransfer)
		engine.AssertExpectations(t)
	})

	t.Run("MissingLeg", func(t *testing.T) {
		tests := []struct {
			name string
			in   PostingInput
			want error
		}{
			{name: "DepositWithoutDestination", in: PostingInput{Type: transaction.TypeDeposit, From: &from, Amount: amount}, want: transaction.ErrMissingDestination},
			{name: "WithdrawalWithDestination", in: PostingInput{Type: transaction.TypeWithdrawal, From: &from, To: &to, Amount: amount}, want: transaction.ErrUnexpectedAccount},
			{name: "TransferWithoutSource", in: PostingInput{Type: transaction.TypeTransfer, To: &to, Amount: amount}, want: transaction.ErrMissingSource},
			{name: "InterestIsNotPostedHere", in: PostingInput{Type: transaction.TypeInterest, To: &to, Amount: amount}, want: transaction.ErrInvalidType},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				engine := new(MockEngine)
				svc := NewTransactionService(discardLogger(), engine, new(MockTransactionRepository), new(MockAccountRepository))

				_, err := svc.Post(ctx, tt.in, meta)

				assert.ErrorIs(t, err, ledger.ErrInvalidOperation{})
				assert.ErrorIs(t, err, tt.want)
				engine.AssertExpectations(t)
			})
		}
	})
}

func TestTransactionServiceImpl_GetTransaction(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	repo := new(MockTransactionRepository)
	svc := NewTransactionService(discardLogger(), new(MockEngine), repo, new(MockAccountRepository))

	record := &transaction.Record{ID: id}
	repo.On("GetByID", ctx, id).Return(record, nil).Once()
	got, err := svc.GetTransaction(ctx, id)
	require.NoError(t, err)
	assert.Same(t, record, got)

	missing := uuid.New()
	repo.On("GetByID", ctx, missing).Return(nil, transaction.ErrRecordNotFound{TransactionID: missing}).Once()
	_, err = svc.GetTransaction(ctx, missing)
	assert.ErrorIs(t, err, transaction.ErrRecordNotFound{})

	repo.AssertExpectations(t)
}

func TestTransactionServiceImpl_ListByAccount(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	filter := transaction.ListFilter{From: &start}

	t.Run("Success", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		repo := new(MockTransactionRepository)
		svc := NewTransactionService(discardLogger(), new(MockEngine), repo, accounts)

		records := []*transaction.Record{{ID: uuid.New()}, {ID: uuid.New()}}
		accounts.On("GetByID", ctx, accountID).Return(&account.Account{ID: accountID}, nil).Once()
		repo.On("ListByAccount", ctx, accountID, filter, 25, 25).Return(records, nil).Once()
		repo.On("CountByAccount", ctx, accountID, filter).Return(int64(27), nil).Once()

		got, total, err := svc.ListByAccount(ctx, HistoryQuery{AccountID: accountID, From: &start, Page: 2, PerPage: 25})

		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, int64(27), total)
		accounts.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		repo := new(MockTransactionRepository)
		svc := NewTransactionService(discardLogger(), new(MockEngine), repo, accounts)
		accounts.On("GetByID", ctx, accountID).Return(nil, account.ErrAccountNotFound{AccountID: accountID}).Once()

		_, _, err := svc.ListByAccount(ctx, HistoryQuery{AccountID: accountID, Page: 1, PerPage: 10})

		assert.Equal(t, ledger.KindAccountNotFound, ledger.KindOf(err))
		repo.AssertNotCalled(t, "ListByAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CountError", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		repo := new(MockTransactionRepository)
		svc := NewTransactionService(discardLogger(), new(MockEngine), repo, accounts)
		accounts.On("GetByID", ctx, accountID).Return(&account.Account{ID: accountID}, nil).Once()
		repo.On("ListByAccount", ctx, accountID, transaction.ListFilter{}, 10, 0).Return([]*transaction.Record{}, nil).Once()
		repo.On("CountByAccount", ctx, accountID, transaction.ListFilter{}).Return(int64(0), errors.New("db gone")).Once()

		_, _, err := svc.ListByAccount(ctx, HistoryQuery{AccountID: accountID, Page: 1, PerPage: 10})

		assert.EqualError(t, err, "db gone")
	})
}

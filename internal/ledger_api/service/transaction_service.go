package service

import (
	"context"
	"log/slog"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/google/uuid"
)

// TransactionServiceImpl implements TransactionService
type TransactionServiceImpl struct {
	engine          ledger.Service
	transactionRepo transaction.Repository
	accountRepo     account.Repository
	logger          *slog.Logger
}

func NewTransactionService(
	logger *slog.Logger,
	engine ledger.Service,
	transactionRepo transaction.Repository,
	accountRepo account.Repository,
) TransactionService {
	return &TransactionServiceImpl{
		engine:          engine,
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		logger:          logger,
	}
}

// Post dispatches the movement to the engine. Only a missing leg is rejected
// here; everything the engine can check, a self-transfer included, is left to
// it so the rejection is audited.
func (s *TransactionServiceImpl) Post(ctx context.Context, in PostingInput, meta ledger.Meta) (*transaction.Record, error) {
	switch in.Type {
	case transaction.TypeDeposit:
		if in.To == nil || in.From != nil {
			return nil, shapeError(in)
		}
		return s.engine.Deposit(ctx, *in.To, in.Amount, meta)
	case transaction.TypeWithdrawal:
		if in.From == nil || in.To != nil {
			return nil, shapeError(in)
		}
		return s.engine.Withdraw(ctx, *in.From, in.Amount, meta)
	case transaction.TypeTransfer:
		if in.From == nil || in.To == nil {
			return nil, shapeError(in)
		}
		return s.engine.Transfer(ctx, *in.From, *in.To, in.Amount, meta)
	}
	return nil, shapeError(in)
}

func shapeError(in PostingInput) error {
	err := transaction.ValidateShape(in.Type, in.From, in.To, in.Amount)
	if err == nil {
		err = transaction.ErrInvalidType
	}
	return ledger.ErrInvalidOperation{Reason: err.Error(), Err: err}
}

func (s *TransactionServiceImpl) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Record, error) {
	record, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Debug("Failed to get transaction", "transaction_id", id.String(), "error", err)
		return nil, err
	}
	return record, nil
}

func (s *TransactionServiceImpl) ListByAccount(ctx context.Context, q HistoryQuery) ([]*transaction.Record, int64, error) {
	if _, err := s.accountRepo.GetByID(ctx, q.AccountID); err != nil {
		return nil, 0, err
	}

	filter := transaction.ListFilter{From: q.From, To: q.To}
	records, err := s.transactionRepo.ListByAccount(ctx, q.AccountID, filter, q.PerPage, offset(q.Page, q.PerPage))
	if err != nil {
		s.logger.Error("Failed to list transactions", "account_id", q.AccountID.String(), "error", err)
		return nil, 0, err
	}
	total, err := s.transactionRepo.CountByAccount(ctx, q.AccountID, filter)
	if err != nil {
		s.logger.Error("Failed to count transactions", "account_id", q.AccountID.String(), "error", err)
		return nil, 0, err
	}
	return records, total, nil
}

package service

import (
	"context"
	"log/slog"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/outbox"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/google/uuid"
)

const initialDepositDescription = "Initial deposit"

// AccountServiceImpl implements AccountService
type AccountServiceImpl struct {
	lifecycle   AccountLifecycle
	engine      ledger.Service
	accountRepo account.Repository
	archive     outbox.Archive
	logger      *slog.Logger
}

func NewAccountService(
	logger *slog.Logger,
	lifecycle AccountLifecycle,
	engine ledger.Service,
	accountRepo account.Repository,
	archive outbox.Archive,
) AccountService {
	return &AccountServiceImpl{
		lifecycle:   lifecycle,
		engine:      engine,
		accountRepo: accountRepo,
		archive:     archive,
		logger:      logger,
	}
}

func (s *AccountServiceImpl) OpenAccount(ctx context.Context, in OpenAccountInput, meta ledger.Meta) (*account.Account, *transaction.Record, error) {
	acc, err := s.lifecycle.Open(ctx, ledger.OpenParams{
		CustomerID:   in.CustomerID,
		Type:         in.Type,
		Currency:     in.Currency,
		InterestRate: in.InterestRate,
		CreditLimit:  in.CreditLimit,
	}, meta)
	if err != nil {
		return nil, nil, err
	}

	if in.InitialDeposit == nil || !in.InitialDeposit.IsPositive() {
		return acc, nil, nil
	}

	depositMeta := meta
	depositMeta.TransactionID = uuid.Nil
	depositMeta.Description = initialDepositDescription
	record, err := s.engine.Deposit(ctx, acc.ID, *in.InitialDeposit, depositMeta)
	if err != nil {
		s.logger.Warn("Account opened but initial deposit failed",
			"account_id", acc.ID.String(),
			"error", err,
		)
		return acc, nil, err
	}

	// re-read so the response carries the credited balance and version
	updated, err := s.accountRepo.GetByID(ctx, acc.ID)
	if err != nil {
		s.logger.Error("Failed to reload account after initial deposit", "account_id", acc.ID.String(), "error", err)
		return acc, record, nil
	}
	return updated, record, nil
}

func (s *AccountServiceImpl) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

func (s *AccountServiceImpl) ChangeStatus(ctx context.Context, id uuid.UUID, status account.Status, reason string, meta ledger.Meta) (*account.Account, error) {
	return s.lifecycle.ChangeStatus(ctx, id, status, reason, meta)
}

func (s *AccountServiceImpl) PostInterest(ctx context.Context, id uuid.UUID, meta ledger.Meta) (*transaction.Record, error) {
	return s.engine.PostInterest(ctx, id, meta)
}

func (s *AccountServiceImpl) ListEvents(ctx context.Context, id uuid.UUID, page, perPage int) ([]*outbox.Event, int64, error) {
	if _, err := s.accountRepo.GetByID(ctx, id); err != nil {
		return nil, 0, err
	}

	events, err := s.archive.ListByAccount(ctx, id, perPage, offset(page, perPage))
	if err != nil {
		s.logger.Error("Failed to list account events", "account_id", id.String(), "error", err)
		return nil, 0, err
	}
	total, err := s.archive.CountByAccount(ctx, id)
	if err != nil {
		s.logger.Error("Failed to count account events", "account_id", id.String(), "error", err)
		return nil, 0, err
	}
	return events, total, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corebank-ledger/internal/config"
	"github.com/corebank-ledger/internal/domain/shared"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger"
)

// ErrUnprocessable marks a command that can never succeed as sent. The
// consumer parks it in the DLQ.
type ErrUnprocessable struct {
	Reason string
	Err    error
}

func (e ErrUnprocessable) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e ErrUnprocessable) Unwrap() error { return e.Err }

func (e ErrUnprocessable) Is(target error) bool {
	_, ok := target.(ErrUnprocessable)
	return ok
}

// RetryPolicy bounds how often a retryable ledger failure is retried
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration // doubled after every failed attempt
}

func RetryPolicyFromConfig(cfg *config.LedgerConfig) RetryPolicy {
	return RetryPolicy{Attempts: cfg.CommandRetryAttempts, Backoff: cfg.CommandRetryBackoff}
}

type CommandServiceImpl struct {
	engine  ledger.Service
	records RecordFinder
	retry   RetryPolicy
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewCommandService(engine ledger.Service, records RecordFinder, retry RetryPolicy, logger *slog.Logger) *CommandServiceImpl {
	if retry.Attempts < 1 {
		retry.Attempts = 1
	}
	return &CommandServiceImpl{
		engine:  engine,
		records: records,
		retry:   retry,
		logger:  logger,
		sleep:   sleepContext,
	}
}

func (s *CommandServiceImpl) Execute(ctx context.Context, cmd *shared.LedgerCommand) error {
	logger := s.logger.With(
		"transaction_id", cmd.TransactionID.String(),
		"type", string(cmd.Type),
		"actor_id", cmd.ActorID,
	)
	if cmd.CorrelationID != "" {
		logger = logger.With("correlation_id", cmd.CorrelationID)
	}

	if err := cmd.Validate(); err != nil {
		logger.Warn("Rejecting malformed ledger command", "error", err)
		return ErrUnprocessable{Reason: "invalid ledger command", Err: err}
	}

	backoff := s.retry.Backoff
	var lastErr error
	for attempt := 1; attempt <= s.retry.Attempts; attempt++ {
		// checked before every attempt: a commit whose acknowledgement got lost
		// must not be posted twice
		recorded, err := s.alreadyRecorded(ctx, cmd)
		if err != nil {
			lastErr = err
		} else if recorded {
			logger.Info("Ledger command already recorded, skipping")
			return nil
		} else {
			lastErr = s.dispatch(ctx, cmd)
			if lastErr == nil {
				logger.Info("Ledger command executed", "attempt", attempt)
				return nil
			}
			if !ledger.IsRetryable(lastErr) {
				// business rejections are final and already audited by the engine
				logger.Warn("Ledger command rejected",
					"error_kind", string(ledger.KindOf(lastErr)),
					"error", lastErr,
				)
				return nil
			}
		}

		if attempt == s.retry.Attempts {
			break
		}
		logger.Warn("Ledger command failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", lastErr,
		)
		if err := s.sleep(ctx, backoff); err != nil {
			return fmt.Errorf("ledger command %s interrupted: %w", cmd.TransactionID, err)
		}
		backoff *= 2
	}

	logger.Error("Ledger command failed after retries", "attempts", s.retry.Attempts, "error", lastErr)
	return ErrUnprocessable{
		Reason: fmt.Sprintf("ledger command failed after %d attempts", s.retry.Attempts),
		Err:    lastErr,
	}
}

func (s *CommandServiceImpl) alreadyRecorded(ctx context.Context, cmd *shared.LedgerCommand) (bool, error) {
	_, err := s.records.GetByID(ctx, cmd.TransactionID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, transaction.ErrRecordNotFound{}):
		return false, nil
	default:
		return false, ledger.ErrStorageFailure{Op: "idempotency check", Err: err}
	}
}

func (s *CommandServiceImpl) dispatch(ctx context.Context, cmd *shared.LedgerCommand) error {
	meta := ledger.Meta{
		TransactionID: cmd.TransactionID,
		ActorID:       cmd.ActorID,
		CorrelationID: cmd.CorrelationID,
		Description:   cmd.Description,
		RequireActive: cmd.RequireActive,
	}

	if cmd.Type == transaction.TypeInterest {
		_, err := s.engine.PostInterest(ctx, *cmd.ToAccountID, meta)
		return err
	}

	amount, err := cmd.Money()
	if err != nil {
		return ledger.ErrInvalidOperation{Reason: "invalid amount", Err: err}
	}
	switch cmd.Type {
	case transaction.TypeDeposit:
		_, err = s.engine.Deposit(ctx, *cmd.ToAccountID, amount, meta)
	case transaction.TypeWithdrawal:
		_, err = s.engine.Withdraw(ctx, *cmd.FromAccountID, amount, meta)
	case transaction.TypeTransfer:
		_, err = s.engine.Transfer(ctx, *cmd.FromAccountID, *cmd.ToAccountID, amount, meta)
	default:
		err = ledger.ErrInvalidOperation{Reason: "unsupported transaction type " + string(cmd.Type)}
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Package interest runs the periodic interest batch over every
// interest-bearing account.
package interest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corebank-ledger/internal/config"
	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// AccountLister pages through accounts that may earn interest
type AccountLister interface {
	ListInterestBearing(ctx context.Context, limit, offset int) ([]*account.Account, error)
}

// Summary reports one batch run
type Summary struct {
	RunID   string
	Scanned int
	Posted  int
	Skipped int // interest computed to zero
	Failed  int
}

type Runner struct {
	accounts  AccountLister
	engine    ledger.Service
	pool      *ants.Pool
	interval  time.Duration
	batchSize int
	actorID   string
	logger    *slog.Logger
}

func NewRunner(cfg *config.InterestConfig, poolSize int, accounts AccountLister, engine ledger.Service, logger *slog.Logger) (*Runner, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create interest worker pool: %w", err)
	}
	return &Runner{
		accounts:  accounts,
		engine:    engine,
		pool:      pool,
		interval:  cfg.RunInterval,
		batchSize: cfg.BatchSize,
		actorID:   cfg.ActorID,
		logger:    logger,
	}, nil
}

// Start runs a batch every interval until ctx is cancelled. A zero interval
// disables the schedule.
func (r *Runner) Start(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info("Interest batch schedule disabled")
		return
	}
	r.logger.Info("Starting interest batch schedule", "interval", r.interval.String())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Interest batch schedule stopping")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("Interest batch failed", "error", err)
			}
		}
	}
}

// RunOnce posts one month of interest to every listed account. FROZEN and
// DORMANT accounts still accrue; the engine rejects CLOSED ones.
func (r *Runner) RunOnce(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID)
	logger.Info("Interest batch started")
	started := time.Now()

	var (
		wg                      sync.WaitGroup
		posted, skipped, failed atomic.Int64
		scanned                 int
		listErr                 error
	)
	for offset := 0; ; offset += r.batchSize {
		page, err := r.accounts.ListInterestBearing(ctx, r.batchSize, offset)
		if err != nil {
			listErr = fmt.Errorf("failed to list interest-bearing accounts at offset %d: %w", offset, err)
			break
		}
		scanned += len(page)

		for _, acc := range page {
			accountID := acc.ID
			task := func() {
				defer wg.Done()
				record, err := r.engine.PostInterest(ctx, accountID, ledger.Meta{
					ActorID:       r.actorID,
					CorrelationID: "interest-" + runID,
				})
				switch {
				case err != nil:
					failed.Add(1)
					logger.Warn("Interest posting failed",
						"account_id", accountID.String(),
						"error_kind", string(ledger.KindOf(err)),
						"error", err,
					)
				case record == nil:
					skipped.Add(1)
				default:
					posted.Add(1)
				}
			}
			wg.Add(1)
			if err := r.pool.Submit(task); err != nil {
				task()
			}
		}
		if len(page) < r.batchSize {
			break
		}
	}
	wg.Wait()

	summary := Summary{
		RunID:   runID,
		Scanned: scanned,
		Posted:  int(posted.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}
	logger.Info("Interest batch finished",
		"scanned", summary.Scanned,
		"posted", summary.Posted,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration", time.Since(started).String(),
	)
	return summary, listErr
}

func (r *Runner) Shutdown() {
	r.pool.Release()
}

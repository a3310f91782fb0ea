package service

import (
	"context"
	"log/slog"

	"github.com/corebank-ledger/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolCommandService runs commands on a bounded ants pool. When the
// pool refuses a task (overloaded or released) the command runs on the
// caller's goroutine instead.
type WorkerPoolCommandService struct {
	base   CommandService
	pool   *ants.Pool
	logger *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

var _ CommandService = (*WorkerPoolCommandService)(nil)

func NewWorkerPoolCommandService(base CommandService, config WorkerPoolConfig, logger *slog.Logger) (*WorkerPoolCommandService, error) {
	pool, err := ants.NewPool(config.Size, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &WorkerPoolCommandService{
		base:   base,
		pool:   pool,
		logger: logger,
	}, nil
}

func (s *WorkerPoolCommandService) Execute(ctx context.Context, cmd *shared.LedgerCommand) error {
	resultChan := make(chan error, 1)
	cmdCopy := *cmd

	err := s.pool.Submit(func() {
		resultChan <- s.base.Execute(ctx, &cmdCopy)
	})
	if err != nil {
		s.logger.Warn("Worker pool refused ledger command, executing synchronously",
			"transaction_id", cmd.TransactionID.String(),
			"running_workers", s.pool.Running(),
			"error", err,
		)
		return s.base.Execute(ctx, cmd)
	}
	return <-resultChan
}

func (s *WorkerPoolCommandService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

func (s *WorkerPoolCommandService) Running() int {
	return s.pool.Running()
}

func (s *WorkerPoolCommandService) Capacity() int {
	return s.pool.Cap()
}

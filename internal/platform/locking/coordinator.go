package locking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corebank-ledger/internal/config"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/corebank-ledger/internal/platform/persistence"
	"github.com/redis/go-redis/v9"
)

// Coordinator is the account Locker chosen by LOCK_BACKEND, together with the
// redis client it owns when the backend is distributed.
type Coordinator struct {
	ledger.Locker
	client *redis.Client
}

// New builds the coordinator for cfg.Locking.Backend, connecting to redis
// when the backend needs it.
func New(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*Coordinator, error) {
	switch cfg.Locking.Backend {
	case config.LockBackendRedis:
		client, err := persistence.NewRedisClient(ctx, logger, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &Coordinator{Locker: NewRedisLocker(client, cfg.Locking, logger), client: client}, nil
	case config.LockBackendLocal, "":
		logger.Warn("Account locks are process-local; run a single ledger process per database")
		return &Coordinator{Locker: ledger.NewLocalLocker(cfg.Locking.WaitTimeout, logger)}, nil
	}
	return nil, fmt.Errorf("unknown lock backend %q", cfg.Locking.Backend)
}

// Distributed reports whether locks are shared between processes.
func (c *Coordinator) Distributed() bool { return c.client != nil }

// Ping checks the redis backend; the local backend is always healthy.
func (c *Coordinator) Ping(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *Coordinator) Close() error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis lock client: %w", err)
	}
	return nil
}

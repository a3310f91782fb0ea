// Package locking holds the distributed implementation of ledger.Locker, used
// when more than one process posts against the same accounts.
package locking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/corebank-ledger/internal/config"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const releaseTimeout = 2 * time.Second

// RedisLocker takes one redsync mutex per account, in global order. A held
// mutex expires after Expiry so a crashed holder cannot pin an account forever.
type RedisLocker struct {
	rs     *redsync.Redsync
	cfg    config.LockingConfig
	logger *slog.Logger
}

var _ ledger.Locker = (*RedisLocker)(nil)

func NewRedisLocker(client redis.UniversalClient, cfg config.LockingConfig, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		cfg:    cfg,
		logger: logger,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, ids []uuid.UUID) (func(), error) {
	ordered := ledger.OrderAccountIDs(ids)

	waitCtx, cancel := context.WithTimeout(ctx, l.cfg.WaitTimeout)
	defer cancel()

	held := make([]*redsync.Mutex, 0, len(ordered))
	for _, id := range ordered {
		mutex := l.rs.NewMutex(l.key(id),
			redsync.WithExpiry(l.cfg.Expiry),
			redsync.WithTries(l.tries()),
			redsync.WithRetryDelay(l.cfg.RetryDelay),
		)
		if err := mutex.LockContext(waitCtx); err != nil {
			l.release(held)
			if !isContention(err) && waitCtx.Err() == nil {
				l.logger.Error("Failed to acquire account lock", "account_id", id.String(), "error", err)
			} else {
				l.logger.Warn("Timed out waiting for account lock", "account_id", id.String(), "wait", l.cfg.WaitTimeout)
			}
			return nil, ledger.ErrLockTimeout{AccountIDs: ordered, Wait: l.cfg.WaitTimeout, Err: err}
		}
		held = append(held, mutex)
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(held) }) }, nil
}

func (l *RedisLocker) key(id uuid.UUID) string {
	return l.cfg.KeyPrefix + id.String()
}

// tries spreads the bounded wait over RetryDelay sized attempts; the context
// deadline is what actually ends the wait.
func (l *RedisLocker) tries() int {
	if l.cfg.RetryDelay <= 0 {
		return 1
	}
	return int(l.cfg.WaitTimeout/l.cfg.RetryDelay) + 1
}

// release unlocks in reverse order. It must work after the caller's context
// is gone, so it uses its own.
func (l *RedisLocker) release(held []*redsync.Mutex) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	for i := len(held) - 1; i >= 0; i-- {
		if ok, err := held[i].UnlockContext(ctx); !ok || err != nil {
			// the lease expired before release; another holder may already own it
			l.logger.Warn("Failed to release account lock", "key", held[i].Name(), "ok", ok, "error", err)
		}
	}
}

// isContention separates "someone else holds it" from redis being unreachable.
func isContention(err error) bool {
	msg := err.Error()
	return errors.Is(err, redsync.ErrFailed) ||
		strings.Contains(msg, "lock already taken") ||
		strings.Contains(msg, "failed to acquire lock")
}

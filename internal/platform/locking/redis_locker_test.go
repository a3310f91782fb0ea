package locking

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/corebank-ledger/internal/config"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T, wait time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.LockingConfig{
		Backend:     config.LockBackendRedis,
		WaitTimeout: wait,
		Expiry:      10 * time.Second,
		RetryDelay:  10 * time.Millisecond,
		KeyPrefix:   "ledger:account:",
	}
	return NewRedisLocker(client, cfg, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	locker, mr := newTestLocker(t, time.Second)
	a, b := uuid.New(), uuid.New()

	release, err := locker.Acquire(context.Background(), []uuid.UUID{b, a, a})
	require.NoError(t, err)
	assert.True(t, mr.Exists("ledger:account:"+a.String()))
	assert.True(t, mr.Exists("ledger:account:"+b.String()))

	release()
	release()
	assert.False(t, mr.Exists("ledger:account:"+a.String()))
	assert.False(t, mr.Exists("ledger:account:"+b.String()))
}

func TestRedisLocker_TimesOutWhileHeld(t *testing.T) {
	locker, mr := newTestLocker(t, 100*time.Millisecond)
	a, b := uuid.New(), uuid.New()

	release, err := locker.Acquire(context.Background(), []uuid.UUID{b})
	require.NoError(t, err)

	start := time.Now()
	_, err = locker.Acquire(context.Background(), []uuid.UUID{a, b})
	var timeout ledger.ErrLockTimeout
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, ledger.KindLockTimeout, ledger.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)

	// whichever of the two was taken before giving up has been given back
	ordered := ledger.OrderAccountIDs([]uuid.UUID{a, b})
	if ordered[0] == a {
		assert.False(t, mr.Exists("ledger:account:"+a.String()))
	}

	release()
	again, err := locker.Acquire(context.Background(), []uuid.UUID{a, b})
	require.NoError(t, err)
	again()
}

func TestRedisLocker_ExpiredLeaseIsReclaimed(t *testing.T) {
	locker, mr := newTestLocker(t, 200*time.Millisecond)
	id := uuid.New()

	stale, err := locker.Acquire(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)

	mr.FastForward(11 * time.Second)

	release, err := locker.Acquire(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)

	// the stale holder's release must not drop the new holder's lease
	stale()
	assert.True(t, mr.Exists("ledger:account:"+id.String()))
	release()
}

func TestRedisLocker_Unreachable(t *testing.T) {
	locker, mr := newTestLocker(t, 50*time.Millisecond)
	mr.Close()

	_, err := locker.Acquire(context.Background(), []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, ledger.ErrLockTimeout{})
}

func TestRedisLocker_Tries(t *testing.T) {
	l := &RedisLocker{cfg: config.LockingConfig{WaitTimeout: time.Second, RetryDelay: 100 * time.Millisecond}}
	assert.Equal(t, 11, l.tries())

	l.cfg.RetryDelay = 0
	assert.Equal(t, 1, l.tries())
}

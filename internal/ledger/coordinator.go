package ledger

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Locker grants an operation exclusive ownership of a set of accounts.
// Implementations acquire in OrderAccountIDs order and give up with
// ErrLockTimeout once their bounded wait is spent. The returned release
// func is safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, ids []uuid.UUID) (release func(), err error)
}

// OrderAccountIDs returns the distinct ids sorted by their byte representation,
// the global acquisition order shared by every Locker.
func OrderAccountIDs(ids []uuid.UUID) []uuid.UUID {
	ordered := slices.Clone(ids)
	slices.SortFunc(ordered, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return slices.Compact(ordered)
}

type accountLock struct {
	sem  *semaphore.Weighted
	refs int
}

// LocalLocker serializes operations inside one process with a weighted
// semaphore per account. Entries are reference counted and dropped once no
// operation holds or waits for them.
type LocalLocker struct {
	mu      sync.Mutex
	locks   map[uuid.UUID]*accountLock
	timeout time.Duration
	logger  *slog.Logger
}

func NewLocalLocker(timeout time.Duration, logger *slog.Logger) *LocalLocker {
	return &LocalLocker{
		locks:   make(map[uuid.UUID]*accountLock),
		timeout: timeout,
		logger:  logger,
	}
}

func (l *LocalLocker) Acquire(ctx context.Context, ids []uuid.UUID) (func(), error) {
	ordered := OrderAccountIDs(ids)

	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	held := make([]uuid.UUID, 0, len(ordered))
	for _, id := range ordered {
		lock := l.ref(id)
		if err := lock.sem.Acquire(waitCtx, 1); err != nil {
			l.unref(id)
			l.release(held)
			l.logger.Warn("Timed out waiting for account lock", "account_id", id.String(), "wait", l.timeout)
			return nil, ErrLockTimeout{AccountIDs: ordered, Wait: l.timeout, Err: err}
		}
		held = append(held, id)
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(held) }) }, nil
}

// Held reports how many accounts currently have a lock entry.
func (l *LocalLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *LocalLocker) ref(id uuid.UUID) *accountLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &accountLock{sem: semaphore.NewWeighted(1)}
		l.locks[id] = lock
	}
	lock.refs++
	return lock
}

func (l *LocalLocker) unref(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock := l.locks[id]
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, id)
	}
}

// release frees held locks in reverse acquisition order.
func (l *LocalLocker) release(held []uuid.UUID) {
	for i := len(held) - 1; i >= 0; i-- {
		l.mu.Lock()
		lock := l.locks[held[i]]
		l.mu.Unlock()
		lock.sem.Release(1)
		l.unref(held[i])
	}
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/audit"
	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, s *LedgerStore) *account.Account {
	t.Helper()
	acc, err := account.NewAccount("c", account.TypeChecking, "USD", decimal.Zero, nil)
	require.NoError(t, err)
	s.PutAccount(acc)
	return acc
}

func TestLedgerStore_CommitsStagedWrites(t *testing.T) {
	s := NewLedgerStore()
	acc := seedAccount(t, s)

	err := s.ExecuteTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		locked, err := tx.LockAccount(ctx, acc.ID)
		if err != nil {
			return err
		}
		if err := locked.Credit(money.MustParse("10", "USD"), time.Now()); err != nil {
			return err
		}
		if err := tx.SaveAccount(ctx, locked); err != nil {
			return err
		}
		entry, err := audit.NewEntry("u", audit.ActionDeposit, audit.ResourceAccount, acc.ID.String(), nil, time.Time{})
		if err != nil {
			return err
		}
		if err := tx.AppendAudit(ctx, entry); err != nil {
			return err
		}
		assert.Equal(t, int64(1), entry.Sequence)

		// staged, not yet visible
		stored, _ := s.Account(acc.ID)
		assert.True(t, stored.Balance.IsZero())
		return nil
	})
	require.NoError(t, err)

	stored, ok := s.Account(acc.ID)
	require.True(t, ok)
	assert.Equal(t, "10.00", stored.Balance.StringFixed())
	assert.Equal(t, 2, stored.Version)
	assert.Len(t, s.AuditEntries(), 1)
}

func TestLedgerStore_RollsBackOnError(t *testing.T) {
	s := NewLedgerStore()
	acc := seedAccount(t, s)
	boom := errors.New("boom")

	err := s.ExecuteTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		locked, _ := tx.LockAccount(ctx, acc.ID)
		_ = locked.Credit(money.MustParse("10", "USD"), time.Now())
		_ = tx.SaveAccount(ctx, locked)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, _ := s.Account(acc.ID)
	assert.True(t, stored.Balance.IsZero())
	assert.Equal(t, 1, stored.Version)
}

func TestLedgerStore_CancelledContextDoesNotCommit(t *testing.T) {
	s := NewLedgerStore()
	to := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())

	err := s.ExecuteTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		rec, err := transaction.New(transaction.Params{Type: transaction.TypeDeposit, To: &to, Amount: money.MustParse("1", "USD"), ActorID: "u"}, transaction.StatusCompleted, "")
		require.NoError(t, err)
		cancel()
		return tx.CreateTransaction(ctx, rec)
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.Transactions())
}

func TestLedgerStore_DetectsLostUpdate(t *testing.T) {
	s := NewLedgerStore()
	acc := seedAccount(t, s)

	err := s.ExecuteTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		locked, err := tx.LockAccount(ctx, acc.ID)
		require.NoError(t, err)

		// another writer commits in between
		bumped := *acc
		bumped.Version = 5
		s.PutAccount(&bumped)

		return tx.SaveAccount(ctx, locked)
	})
	assert.ErrorIs(t, err, account.ErrConcurrentModification{AccountID: acc.ID})
}

func TestLedgerStore_Errors(t *testing.T) {
	s := NewLedgerStore()
	acc := seedAccount(t, s)
	to := acc.ID
	rec, err := transaction.New(transaction.Params{Type: transaction.TypeDeposit, To: &to, Amount: money.MustParse("1", "USD"), ActorID: "u"}, transaction.StatusCompleted, "")
	require.NoError(t, err)

	require.NoError(t, s.ExecuteTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		return tx.CreateTransaction(ctx, rec)
	}))
	got, ok := s.Transaction(rec.ID)
	require.True(t, ok)
	assert.Equal(t, rec.ReferenceNumber, got.ReferenceNumber)

	err = s.ExecuteTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		return tx.CreateTransaction(ctx, rec)
	})
	assert.ErrorIs(t, err, transaction.ErrDuplicateRecord{})

	err = s.ExecuteTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		_, err := tx.LockAccount(ctx, uuid.New())
		return err
	})
	assert.ErrorIs(t, err, account.ErrAccountNotFound{})

	err = s.ExecuteTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		return tx.SaveAccount(ctx, acc)
	})
	assert.Error(t, err, "saving an unlocked account")
}

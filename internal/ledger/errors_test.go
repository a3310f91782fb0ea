package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	id := uuid.New()

	testCases := []struct {
		name      string
		err       error
		want      Kind
		retryable bool
	}{
		{"nil", nil, KindUnknown, false},
		{"unknown", errors.New("boom"), KindUnknown, false},
		{"not found", account.ErrAccountNotFound{AccountID: id}, KindAccountNotFound, false},
		{"wrapped not found", fmt.Errorf("lock: %w", account.ErrAccountNotFound{AccountID: id}), KindAccountNotFound, false},
		{"status", account.ErrInvalidAccountStatus{AccountID: id, Status: account.StatusFrozen}, KindInvalidAccountStatus, false},
		{"insufficient", account.ErrInsufficientFunds{AccountID: id}, KindInsufficientFunds, false},
		{"invalid operation", ErrInvalidOperation{Reason: "x"}, KindInvalidOperation, false},
		{"lock timeout", ErrLockTimeout{AccountIDs: []uuid.UUID{id}}, KindLockTimeout, true},
		{"storage", ErrStorageFailure{Op: "commit", Err: errors.New("down")}, KindStorageFailure, true},
		// the outer classification wins over whatever it wraps
		{"storage wrapping not found", ErrStorageFailure{Op: "commit", Err: account.ErrAccountNotFound{}}, KindStorageFailure, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
			assert.Equal(t, tc.retryable, IsRetryable(tc.err))
		})
	}
}

func TestClassify(t *testing.T) {
	id := uuid.New()

	known := account.ErrInsufficientFunds{AccountID: id}
	assert.Equal(t, error(known), classify("commit", known))

	mismatch := classify("commit", fmt.Errorf("credit: %w", money.ErrCurrencyMismatch))
	assert.Equal(t, KindInvalidOperation, KindOf(mismatch))
	assert.ErrorIs(t, mismatch, money.ErrCurrencyMismatch)

	dup := classify("commit", transaction.ErrDuplicateRecord{TransactionID: id})
	assert.Equal(t, KindInvalidOperation, KindOf(dup))

	raw := errors.New("connection refused")
	storage := classify("commit DEPOSIT", raw)
	var storageErr ErrStorageFailure
	assert.ErrorAs(t, storage, &storageErr)
	assert.Equal(t, "commit DEPOSIT", storageErr.Op)
	assert.ErrorIs(t, storage, raw)
}

func TestErrors_IsMatchesByType(t *testing.T) {
	assert.ErrorIs(t, ErrLockTimeout{AccountIDs: []uuid.UUID{uuid.New()}}, ErrLockTimeout{})
	assert.ErrorIs(t, ErrStorageFailure{Op: "x"}, ErrStorageFailure{})
	assert.ErrorIs(t, ErrInvalidOperation{Reason: "y"}, ErrInvalidOperation{})
	assert.NotErrorIs(t, ErrInvalidOperation{}, ErrStorageFailure{})
}

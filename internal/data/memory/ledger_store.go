// Package memory provides an in-process ledger.Store. Writes made inside a
// unit of work are staged and only become visible on commit, so a failed
// unit of work leaves nothing behind.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/audit"
	"github.com/corebank-ledger/internal/domain/outbox"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/google/uuid"
)

// FaultFunc lets tests fail a specific write. It is called with the write
// name ("create_account", "save_account", "create_transaction",
// "append_audit", "enqueue_event" or "commit") and returns the error to
// inject, or nil.
type FaultFunc func(write string, tx *Tx) error

// LedgerStore is a ledger.Store kept in maps.
type LedgerStore struct {
	mu           sync.RWMutex
	accounts     map[uuid.UUID]account.Account
	transactions []*transaction.Record
	txIndex      map[uuid.UUID]int
	auditLog     []*audit.Entry
	outbox       []*outbox.Message
	sequence     int64
	outboxSeq    int64
	fault        FaultFunc
}

var _ ledger.Store = (*LedgerStore)(nil)

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		accounts: make(map[uuid.UUID]account.Account),
		txIndex:  make(map[uuid.UUID]int),
	}
}

// SetFault installs (or with nil removes) a fault injector.
func (s *LedgerStore) SetFault(fault FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fault
}

// PutAccount stores acc as-is, the way account opening would.
func (s *LedgerStore) PutAccount(acc *account.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acc.ID] = *acc
}

// Account returns a copy of the committed account.
func (s *LedgerStore) Account(id uuid.UUID) (*account.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, false
	}
	return &acc, true
}

// Transactions returns committed records in insertion order.
func (s *LedgerStore) Transactions() []*transaction.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transactions)
}

// Transaction looks a record up by id.
func (s *LedgerStore) Transaction(id uuid.UUID) (*transaction.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.txIndex[id]
	if !ok {
		return nil, false
	}
	return s.transactions[i], true
}

// AuditEntries returns the audit trail in canonical order.
func (s *LedgerStore) AuditEntries() []*audit.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := slices.Clone(s.auditLog)
	slices.SortStableFunc(entries, func(a, b *audit.Entry) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	return entries
}

func (s *LedgerStore) OutboxMessages() []*outbox.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.outbox)
}

// ExecuteTx stages every write and applies them together. Accounts are
// version checked on commit so a lost update surfaces as
// ErrConcurrentModification instead of silently overwriting.
func (s *LedgerStore) ExecuteTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	tx := &Tx{
		store:    s,
		read:     make(map[uuid.UUID]int),
		accounts: make(map[uuid.UUID]*account.Account),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *LedgerStore) commit(tx *Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injected("commit", tx); err != nil {
		return err
	}
	for id, acc := range tx.accounts {
		// a missing account reads as version 0, which is what CreateAccount expects
		if s.accounts[id].Version != tx.read[id] {
			return account.ErrConcurrentModification{AccountID: id}
		}
		s.accounts[id] = *acc
	}
	for _, rec := range tx.transactions {
		s.txIndex[rec.ID] = len(s.transactions)
		s.transactions = append(s.transactions, rec)
	}
	s.auditLog = append(s.auditLog, tx.audit...)
	for _, msg := range tx.outbox {
		s.outboxSeq++
		msg.ID = s.outboxSeq
		s.outbox = append(s.outbox, msg)
	}
	return nil
}

// injected must be called with s.mu held.
func (s *LedgerStore) injected(write string, tx *Tx) error {
	if s.fault == nil {
		return nil
	}
	return s.fault(write, tx)
}

func (s *LedgerStore) checkFault(write string, tx *Tx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.injected(write, tx)
}

// Tx is one staged unit of work.
type Tx struct {
	store        *LedgerStore
	read         map[uuid.UUID]int // version observed when the account was locked
	accounts     map[uuid.UUID]*account.Account
	transactions []*transaction.Record
	audit        []*audit.Entry
	outbox       []*outbox.Message
}

var _ ledger.Tx = (*Tx)(nil)

// SavedAccounts lists accounts staged so far; handy inside a FaultFunc.
func (t *Tx) SavedAccounts() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.accounts))
	for id := range t.accounts {
		ids = append(ids, id)
	}
	return ids
}

func (t *Tx) LockAccount(_ context.Context, id uuid.UUID) (*account.Account, error) {
	t.store.mu.RLock()
	acc, ok := t.store.accounts[id]
	t.store.mu.RUnlock()
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	t.read[id] = acc.Version
	return &acc, nil
}

func (t *Tx) SaveAccount(_ context.Context, acc *account.Account) error {
	if _, ok := t.read[acc.ID]; !ok {
		return errors.New("account saved without being locked: " + acc.ID.String())
	}
	if err := t.store.checkFault("save_account", t); err != nil {
		return err
	}
	staged := *acc
	t.accounts[acc.ID] = &staged
	return nil
}

func (t *Tx) CreateAccount(_ context.Context, acc *account.Account) error {
	if _, exists := t.store.Account(acc.ID); exists {
		return errors.New("account already exists: " + acc.ID.String())
	}
	if err := t.store.checkFault("create_account", t); err != nil {
		return err
	}
	staged := *acc
	t.accounts[acc.ID] = &staged
	t.read[acc.ID] = 0
	return nil
}

// SaveAccountStatus stages the account like SaveAccount; the memory store
// keeps whole accounts, so there is nothing narrower to write.
func (t *Tx) SaveAccountStatus(ctx context.Context, acc *account.Account) error {
	return t.SaveAccount(ctx, acc)
}

func (t *Tx) CreateTransaction(_ context.Context, record *transaction.Record) error {
	if err := t.store.checkFault("create_transaction", t); err != nil {
		return err
	}
	if _, exists := t.store.Transaction(record.ID); exists {
		return transaction.ErrDuplicateRecord{TransactionID: record.ID}
	}
	t.transactions = append(t.transactions, record)
	return nil
}

func (t *Tx) AppendAudit(_ context.Context, entry *audit.Entry) error {
	if err := t.store.checkFault("append_audit", t); err != nil {
		return err
	}
	// sequences behave like a database sequence: assigned on insert, gaps on rollback
	t.store.mu.Lock()
	t.store.sequence++
	entry.Sequence = t.store.sequence
	t.store.mu.Unlock()
	t.audit = append(t.audit, entry)
	return nil
}

func (t *Tx) EnqueueEvent(_ context.Context, msg *outbox.Message) error {
	if err := t.store.checkFault("enqueue_event", t); err != nil {
		return err
	}
	t.outbox = append(t.outbox, msg)
	return nil
}

// Package postgres provides PostgreSQL implementations of the domain
// repositories and the ledger.Store the posting engine runs on.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, customer_id, account_number, account_type, currency, balance, available_balance,
		credit_limit, interest_rate, status, version, last_activity_at, created_at, updated_at`

const (
	insertAccountQuery = `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	selectAccountQuery = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`
	lockAccountQuery = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`
	updateBalanceQuery = `
		UPDATE accounts
		SET balance = $1, available_balance = $2, version = $3, last_activity_at = $4, updated_at = $5
		WHERE id = $6 AND version = $7
	`
	updateStatusQuery = `
		UPDATE accounts
		SET status = $1, version = $2, updated_at = $3
		WHERE id = $4 AND version = $5
	`
	listInterestBearingQuery = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE interest_rate > 0 AND status <> 'CLOSED'
		ORDER BY id
		LIMIT $1 OFFSET $2
	`
)

// AccountRepository implements account.Repository for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	_, err := r.querier.Exec(ctx, insertAccountQuery,
		acc.ID,
		acc.CustomerID,
		acc.AccountNumber,
		acc.Type,
		acc.Currency,
		acc.Balance.StringFixed(),
		acc.AvailableBalance.StringFixed(),
		creditLimitArg(acc.CreditLimit),
		acc.InterestRate.String(),
		acc.Status,
		acc.Version,
		acc.LastActivityAt,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create account", "id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc, err := scanAccount(r.querier.QueryRow(ctx, selectAccountQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// LockForUpdate reads the account with SELECT ... FOR UPDATE; the row stays
// locked until the surrounding transaction ends.
func (r *AccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc, err := scanAccount(r.querier.QueryRow(ctx, lockAccountQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to lock account for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock account for update: %w", err)
	}
	return acc, nil
}

// UpdateBalance writes the balances of an account mutated in memory. The
// write only lands if the row still has the version the mutation started from.
func (r *AccountRepository) UpdateBalance(ctx context.Context, acc *account.Account) error {
	result, err := r.querier.Exec(ctx, updateBalanceQuery,
		acc.Balance.StringFixed(),
		acc.AvailableBalance.StringFixed(),
		acc.Version,
		acc.LastActivityAt,
		acc.UpdatedAt,
		acc.ID,
		acc.Version-1,
	)
	if err != nil {
		r.logger.Error("Failed to update account balance", "id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to update account balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{AccountID: acc.ID}
	}
	return nil
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, acc *account.Account) error {
	result, err := r.querier.Exec(ctx, updateStatusQuery,
		acc.Status,
		acc.Version,
		acc.UpdatedAt,
		acc.ID,
		acc.Version-1,
	)
	if err != nil {
		r.logger.Error("Failed to update account status", "id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to update account status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{AccountID: acc.ID}
	}
	return nil
}

func (r *AccountRepository) ListInterestBearing(ctx context.Context, limit, offset int) ([]*account.Account, error) {
	rows, err := r.querier.Query(ctx, listInterestBearingQuery, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list interest bearing accounts", "error", err)
		return nil, fmt.Errorf("failed to list interest bearing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over accounts: %w", err)
	}
	return accounts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanAccount reads one accountColumns row. NUMERIC columns come back as text
// and are parsed exactly.
func scanAccount(row scanner) (*account.Account, error) {
	var (
		acc          account.Account
		balance      string
		available    string
		creditLimit  *string
		interestRate string
		lastActivity *time.Time
	)
	err := row.Scan(
		&acc.ID,
		&acc.CustomerID,
		&acc.AccountNumber,
		&acc.Type,
		&acc.Currency,
		&balance,
		&available,
		&creditLimit,
		&interestRate,
		&acc.Status,
		&acc.Version,
		&lastActivity,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if acc.Balance, err = money.Parse(balance, acc.Currency); err != nil {
		return nil, fmt.Errorf("account %s: balance: %w", acc.ID, err)
	}
	if acc.AvailableBalance, err = money.Parse(available, acc.Currency); err != nil {
		return nil, fmt.Errorf("account %s: available balance: %w", acc.ID, err)
	}
	if creditLimit != nil {
		limit, err := money.Parse(*creditLimit, acc.Currency)
		if err != nil {
			return nil, fmt.Errorf("account %s: credit limit: %w", acc.ID, err)
		}
		acc.CreditLimit = &limit
	}
	if acc.InterestRate, err = decimal.NewFromString(interestRate); err != nil {
		return nil, fmt.Errorf("account %s: interest rate: %w", acc.ID, err)
	}
	acc.LastActivityAt = lastActivity
	return &acc, nil
}

func creditLimitArg(limit *money.Money) *string {
	if limit == nil {
		return nil
	}
	s := limit.StringFixed()
	return &s
}

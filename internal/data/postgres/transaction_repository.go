package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation   = "23505"
	pgLockNotAvailable  = "55P03"
	transactionsPrimary = "transactions_pkey"
)

const transactionColumns = `id, from_account_id, to_account_id, transaction_type, amount, currency, status,
		reference_number, description, failure_reason, actor_id, correlation_id, created_at`

const (
	insertTransactionQuery = `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	selectTransactionQuery = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
	`
	// nil window bounds are passed as NULL and match everything
	accountHistoryWhere = `
		WHERE (from_account_id = $1 OR to_account_id = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
	`
	listTransactionsByAccountQuery = `
		SELECT ` + transactionColumns + `
		FROM transactions` + accountHistoryWhere + `
		ORDER BY created_at DESC, id
		LIMIT $4 OFFSET $5
	`
	countTransactionsByAccountQuery = `
		SELECT COUNT(*)
		FROM transactions` + accountHistoryWhere
)

// TransactionRepository implements transaction.Repository for PostgreSQL.
// The table is append-only; there is no update path.
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, record *transaction.Record) error {
	_, err := r.querier.Exec(ctx, insertTransactionQuery,
		record.ID,
		record.FromAccountID,
		record.ToAccountID,
		record.Type,
		record.Amount.StringFixed(),
		record.Amount.Currency(),
		record.Status,
		record.ReferenceNumber,
		record.Description,
		record.FailureReason,
		record.ActorID,
		record.CorrelationID,
		record.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == transactionsPrimary {
			return transaction.ErrDuplicateRecord{TransactionID: record.ID}
		}
		r.logger.Error("Failed to create transaction record", "id", record.ID.String(), "error", err)
		return fmt.Errorf("failed to create transaction record: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Record, error) {
	record, err := scanRecord(r.querier.QueryRow(ctx, selectTransactionQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrRecordNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction record", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction record: %w", err)
	}
	return record, nil
}

func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, filter transaction.ListFilter, limit, offset int) ([]*transaction.Record, error) {
	rows, err := r.querier.Query(ctx, listTransactionsByAccountQuery, accountID, filter.From, filter.To, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list account transactions", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list account transactions: %w", err)
	}
	defer rows.Close()

	records := make([]*transaction.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transaction records: %w", err)
	}
	return records, nil
}

func (r *TransactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID, filter transaction.ListFilter) (int64, error) {
	var total int64
	if err := r.querier.QueryRow(ctx, countTransactionsByAccountQuery, accountID, filter.From, filter.To).Scan(&total); err != nil {
		r.logger.Error("Failed to count account transactions", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count account transactions: %w", err)
	}
	return total, nil
}

func scanRecord(row scanner) (*transaction.Record, error) {
	var (
		record   transaction.Record
		amount   string
		currency string
	)
	err := row.Scan(
		&record.ID,
		&record.FromAccountID,
		&record.ToAccountID,
		&record.Type,
		&amount,
		&currency,
		&record.Status,
		&record.ReferenceNumber,
		&record.Description,
		&record.FailureReason,
		&record.ActorID,
		&record.CorrelationID,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if record.Amount, err = money.Parse(amount, currency); err != nil {
		return nil, fmt.Errorf("transaction %s: amount: %w", record.ID, err)
	}
	return &record, nil
}

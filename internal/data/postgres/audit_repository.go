package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corebank-ledger/internal/domain/audit"
	"github.com/corebank-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const (
	appendAuditQuery = `
		INSERT INTO audit_logs (id, actor_id, action, resource_type, resource_id, details, correlation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING sequence
	`
	// empty filter fields are passed as '' or NULL and match everything
	auditFilterWhere = `
		WHERE ($1 = '' OR actor_id = $1)
		  AND ($2 = '' OR resource_type = $2)
		  AND ($3 = '' OR resource_id = $3)
		  AND ($4::timestamptz IS NULL OR created_at >= $4)
		  AND ($5::timestamptz IS NULL OR created_at <= $5)
	`
	listAuditQuery = `
		SELECT sequence, id, actor_id, action, resource_type, resource_id, details, correlation_id, created_at
		FROM audit_logs` + auditFilterWhere + `
		ORDER BY created_at, sequence
		LIMIT $6 OFFSET $7
	`
	countAuditQuery = `
		SELECT COUNT(*)
		FROM audit_logs` + auditFilterWhere
)

// AuditRepository implements audit.Repository for PostgreSQL. Rows are only
// ever inserted; a trigger rejects UPDATE and DELETE.
type AuditRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewAuditRepository(logger *slog.Logger, db *persistence.PostgresDB) audit.Repository {
	return &AuditRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *AuditRepository) WithTx(tx pgx.Tx) audit.Repository {
	return &AuditRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *AuditRepository) Append(ctx context.Context, entry *audit.Entry) error {
	err := r.querier.QueryRow(ctx, appendAuditQuery,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		entry.Details,
		entry.CorrelationID,
		entry.CreatedAt,
	).Scan(&entry.Sequence)
	if err != nil {
		r.logger.Error("Failed to append audit entry",
			"action", string(entry.Action),
			"resource_id", entry.ResourceID,
			"error", err,
		)
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Entry, error) {
	args := append(filterArgs(filter), limit, offset)
	rows, err := r.querier.Query(ctx, listAuditQuery, args...)
	if err != nil {
		r.logger.Error("Failed to list audit entries", "error", err)
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*audit.Entry, 0)
	for rows.Next() {
		var entry audit.Entry
		err := rows.Scan(
			&entry.Sequence,
			&entry.ID,
			&entry.ActorID,
			&entry.Action,
			&entry.ResourceType,
			&entry.ResourceID,
			&entry.Details,
			&entry.CorrelationID,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over audit entries: %w", err)
	}
	return entries, nil
}

func (r *AuditRepository) Count(ctx context.Context, filter audit.Filter) (int64, error) {
	var total int64
	if err := r.querier.QueryRow(ctx, countAuditQuery, filterArgs(filter)...).Scan(&total); err != nil {
		r.logger.Error("Failed to count audit entries", "error", err)
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return total, nil
}

func filterArgs(f audit.Filter) []any {
	return []any{f.ActorID, string(f.ResourceType), f.ResourceID, f.From, f.To}
}

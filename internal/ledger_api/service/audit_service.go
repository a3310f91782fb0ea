package service

import (
	"context"
	"log/slog"

	"github.com/corebank-ledger/internal/domain/audit"
)

type AuditServiceImpl struct {
	auditRepo audit.Repository
	logger    *slog.Logger
}

func NewAuditService(logger *slog.Logger, auditRepo audit.Repository) AuditService {
	return &AuditServiceImpl{auditRepo: auditRepo, logger: logger}
}

// List returns one page of the trail in canonical order plus the total match count
func (s *AuditServiceImpl) List(ctx context.Context, filter audit.Filter, page, perPage int) ([]*audit.Entry, int64, error) {
	entries, err := s.auditRepo.List(ctx, filter, perPage, offset(page, perPage))
	if err != nil {
		s.logger.Error("Failed to list audit entries", "error", err)
		return nil, 0, err
	}
	total, err := s.auditRepo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count audit entries", "error", err)
		return nil, 0, err
	}
	return entries, total, nil
}

package services

import (
	"context"
	"log/slog"

	"github.com/openconf/apiserver/types"
)

// AuditRepository defines persistence operations for the audit log.
type AuditRepository interface {
	Insert(ctx context.Context, entry types.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]types.AuditEntry, error)
}

// AuditService records admin actions. Recording is best-effort: a
// failed insert is logged and swallowed so it never fails the mutation
// being audited.
type AuditService struct {
	repo   AuditRepository
	logger *slog.Logger
}

func NewAuditService(repo AuditRepository, logger *slog.Logger) *AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{repo: repo, logger: logger}
}

// Record inserts an audit row, swallowing any error.
func (s *AuditService) Record(ctx context.Context, adminID int, action, entityType, entityID, details string) {
	entry := types.AuditEntry{
		AdminID:    adminID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Error("audit insert failed",
			slog.String("action", action),
			slog.String("entity_type", entityType),
			slog.String("entity_id", entityID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *AuditService) ListRecent(ctx context.Context, limit int) ([]types.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.ListRecent(ctx, limit)
}

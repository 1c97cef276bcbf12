package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/openconf/apiserver/types"
)

// AuditRepository handles persistence for the admin audit log.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, entry types.AuditEntry) error {
	entry.CreatedAt = time.Now()

	const query = `
		INSERT INTO audit_log (admin_id, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, entry.AdminID, entry.Action, entry.EntityType, entry.EntityID, entry.Details, entry.CreatedAt)
	return err
}

func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]types.AuditEntry, error) {
	const query = `
		SELECT id, admin_id, action, entity_type, entity_id, COALESCE(details, ''), created_at
		FROM audit_log
		ORDER BY id DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []types.AuditEntry
	for rows.Next() {
		var e types.AuditEntry
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &e.EntityType, &e.EntityID, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

package types

import "time"

// AuditEntry records an admin mutation. Writes are best-effort: a failed
// audit insert never fails the mutation it describes.
type AuditEntry struct {
	ID         int64     `json:"id" db:"id"`
	AdminID    int       `json:"admin_id" db:"admin_id"`
	Action     string    `json:"action" db:"action"`
	EntityType string    `json:"entity_type" db:"entity_type"`
	EntityID   string    `json:"entity_id" db:"entity_id"`
	Details    string    `json:"details,omitempty" db:"details"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

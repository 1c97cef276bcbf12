package types

import "time"

// Submission statuses shared by papers and payments.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Paper is a conference paper submission tracked through review.
type Paper struct {
	ID int `json:"id" db:"id"`

	// UserID is the submitting author.
	UserID int `json:"user_id" db:"user_id"`

	Title    string `json:"title" db:"title"`
	Abstract string `json:"abstract" db:"abstract"`

	// FileKey is the object-storage key of the uploaded manuscript.
	FileKey string `json:"-" db:"file_key"`

	// FileName is the original filename supplied by the author.
	FileName string `json:"file_name" db:"file_name"`

	// Status is pending until a reviewer records a decision.
	Status string `json:"status" db:"status"`

	// DecisionNote is an optional note attached to the decision.
	DecisionNote string `json:"decision_note,omitempty" db:"decision_note"`

	// DecidedBy is the reviewer who recorded the decision, if any.
	DecidedBy int `json:"decided_by,omitempty" db:"decided_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

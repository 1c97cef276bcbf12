package types

import "time"

// Payment is a registration-fee payment proof awaiting verification.
type Payment struct {
	ID int `json:"id" db:"id"`

	// UserID is the user who submitted the proof.
	UserID int `json:"user_id" db:"user_id"`

	// Reference is the bank/transaction reference supplied by the user.
	Reference string `json:"reference" db:"reference"`

	// AmountCents is the paid amount in the smallest currency unit.
	AmountCents int64 `json:"amount_cents" db:"amount_cents"`

	// ReceiptKey is the object-storage key of the uploaded receipt.
	ReceiptKey string `json:"-" db:"receipt_key"`

	// ReceiptName is the original filename supplied by the user.
	ReceiptName string `json:"receipt_name" db:"receipt_name"`

	// Status is pending until an admin verifies the payment.
	Status string `json:"status" db:"status"`

	// Note is an optional note attached by the verifying admin.
	Note string `json:"note,omitempty" db:"note"`

	// VerifiedBy is the admin who verified the payment, if any.
	VerifiedBy int `json:"verified_by,omitempty" db:"verified_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

package types

import "time"

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the user's unique email address, used as the login name.
	Email string `json:"email" db:"email"`

	// FullName is the user's display name.
	FullName string `json:"full_name" db:"full_name"`

	// Role indicates the user's capability class (author, reviewer, admin).
	Role Role `json:"role" db:"role"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses. It may be empty for
	// accounts provisioned externally; such accounts cannot log in until
	// they complete a password reset.
	PasswordHash string `json:"-" db:"password_hash"`

	// PasswordResetToken is the outstanding single-use reset token, if any.
	// It is always set and cleared together with PasswordResetExpires.
	PasswordResetToken string `json:"-" db:"password_reset_token"`

	// PasswordResetExpires is the expiry of the outstanding reset token.
	PasswordResetExpires time.Time `json:"-" db:"password_reset_expires"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

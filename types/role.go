package types

import "fmt"

// Role is the closed set of capability classes a user can hold.
// Roles are not ordered: admin is a distinct capability set, not a
// superset of reviewer or author.
type Role string

const (
	// RoleGuest is the implicit role of an unauthenticated visitor.
	// It is never stored on a user record.
	RoleGuest Role = "guest"

	// RoleAuthor can submit papers and payment proofs.
	RoleAuthor Role = "author"

	// RoleReviewer can review papers in addition to author capabilities.
	RoleReviewer Role = "reviewer"

	// RoleAdmin manages users, payments, and site content.
	RoleAdmin Role = "admin"
)

// ParseRole maps a raw string onto the closed Role set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAuthor, RoleReviewer, RoleAdmin, RoleGuest:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// HomePath is the canonical landing path for a role. Every guard uses
// this single mapping when redirecting an authenticated user.
func (r Role) HomePath() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleReviewer:
		return "/reviewers/dashboard"
	case RoleAuthor:
		return "/authors/dashboard"
	default:
		return "/login"
	}
}

// Principal is the resolved identity derived from a verified session
// token. It lives only for the duration of a single request.
type Principal struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

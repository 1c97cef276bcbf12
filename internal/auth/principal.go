package auth

import (
	"net/http"

	"github.com/openconf/apiserver/types"
)

// Resolver turns an incoming request into a Principal, or nothing.
// It only checks the token; any role lookup against the credential
// store is a separate, explicit step taken by the caller.
type Resolver struct {
	issuer *TokenIssuer
}

// NewResolver constructs a Resolver over the given issuer.
func NewResolver(issuer *TokenIssuer) *Resolver {
	return &Resolver{issuer: issuer}
}

// PrincipalFromRequest reads and verifies the session cookie. It
// returns false when the cookie is absent or the token is invalid or
// expired; a failed verification is indistinguishable from no token.
func (r *Resolver) PrincipalFromRequest(req *http.Request) (types.Principal, bool) {
	tokenString, err := TokenFromRequest(req)
	if err != nil {
		return types.Principal{}, false
	}

	claims, err := r.issuer.Verify(tokenString)
	if err != nil {
		return types.Principal{}, false
	}

	userID, err := claims.UserID()
	if err != nil {
		return types.Principal{}, false
	}

	return types.Principal{
		UserID: userID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, true
}

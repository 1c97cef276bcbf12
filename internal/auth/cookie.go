package auth

import (
	"errors"
	"net/http"
	"time"
)

// CookieName is the session cookie carrying the signed token.
const CookieName = "auth-token"

// CookieManager sets, reads, and clears the HTTP-only session cookie.
// The cookie is the sole confidentiality boundary for the token: it is
// never readable by client-side script.
type CookieManager struct {
	secure bool
	ttl    time.Duration
}

// NewCookieManager constructs a CookieManager. secure should only be
// false for local development over plain HTTP.
func NewCookieManager(secure bool, ttl time.Duration) *CookieManager {
	return &CookieManager{secure: secure, ttl: ttl}
}

// SetAuthCookie attaches the session token to the response. Expiry
// matches the token TTL.
func (m *CookieManager) SetAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookie sets an already-expired cookie of the same name so
// the client deletes it. Safe to call on an already logged-out client.
func (m *CookieManager) ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest reads the raw session token from the request cookie.
func TokenFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", errors.New("missing auth cookie")
	}
	return cookie.Value, nil
}

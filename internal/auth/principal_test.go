package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openconf/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrincipalFromRequest(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	resolver := NewResolver(issuer)

	token, err := issuer.Sign(7, "admin@conf.org", types.RoleAdmin)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: token})

	principal, ok := resolver.PrincipalFromRequest(r)
	require.True(t, ok)
	assert.Equal(t, 7, principal.UserID)
	assert.Equal(t, "admin@conf.org", principal.Email)
	assert.Equal(t, types.RoleAdmin, principal.Role)
}

func TestPrincipalFromRequestNoCookie(t *testing.T) {
	resolver := NewResolver(NewTokenIssuer("test-secret", time.Hour))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := resolver.PrincipalFromRequest(r)
	assert.False(t, ok)
}

func TestPrincipalFromRequestBadToken(t *testing.T) {
	resolver := NewResolver(NewTokenIssuer("test-secret", time.Hour))

	// A token signed under a different secret is the same as no token.
	other := NewTokenIssuer("other-secret", time.Hour)
	token, err := other.Sign(1, "a@b.com", types.RoleAuthor)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	_, ok := resolver.PrincipalFromRequest(r)
	assert.False(t, ok)
}

func TestPrincipalFromRequestExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	issuer.now = func() time.Time { return issued }

	token, err := issuer.Sign(1, "a@b.com", types.RoleAuthor)
	require.NoError(t, err)

	issuer.now = time.Now
	resolver := NewResolver(issuer)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	_, ok := resolver.PrincipalFromRequest(r)
	assert.False(t, ok)
}

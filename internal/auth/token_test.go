package auth

import (
	"testing"
	"time"

	"github.com/openconf/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 24*time.Hour)

	token, err := issuer.Sign(42, "reviewer@conf.org", types.RoleReviewer)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
	assert.Equal(t, "reviewer@conf.org", claims.Email)
	assert.Equal(t, types.RoleReviewer, claims.Role)
}

func TestTokenExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	issued := time.Now()
	issuer.now = func() time.Time { return issued }
	token, err := issuer.Sign(1, "author@conf.org", types.RoleAuthor)
	require.NoError(t, err)

	// Still valid just before expiry.
	issuer.now = func() time.Time { return issued.Add(59 * time.Minute) }
	_, err = issuer.Verify(token)
	require.NoError(t, err)

	// Rejected after expiry.
	issuer.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = issuer.Verify(token)
	require.Error(t, err)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	token, err := issuer.Sign(1, "a@b.com", types.RoleAuthor)
	require.NoError(t, err)

	other := NewTokenIssuer("secret-b", time.Hour)
	_, err = other.Verify(token)
	require.Error(t, err)
}

func TestTokenTampered(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Sign(1, "a@b.com", types.RoleAuthor)
	require.NoError(t, err)

	_, err = issuer.Verify(token + "x")
	require.Error(t, err)

	_, err = issuer.Verify("not-a-jwt")
	require.Error(t, err)

	_, err = issuer.Verify("")
	require.Error(t, err)
}

func TestTokenRejectsGuestRole(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Sign(1, "a@b.com", types.RoleGuest)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	require.Error(t, err)
}

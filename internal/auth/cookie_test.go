package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAuthCookie(t *testing.T) {
	m := NewCookieManager(true, 24*time.Hour)
	rec := httptest.NewRecorder()

	m.SetAuthCookie(rec, "the-token")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "the-token", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, int((24 * time.Hour).Seconds()), c.MaxAge)
}

func TestClearAuthCookieIdempotent(t *testing.T) {
	m := NewCookieManager(true, time.Hour)

	// Clearing twice leaves the client in the same logged-out state.
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		m.ClearAuthCookie(rec)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, CookieName, cookies[0].Name)
		assert.Empty(t, cookies[0].Value)
		assert.Negative(t, cookies[0].MaxAge)
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := TokenFromRequest(r)
	assert.Error(t, err)

	r.AddCookie(&http.Cookie{Name: CookieName, Value: "abc"})
	token, err := TokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestTokenFromRequestEmptyValue(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: ""})
	_, err := TokenFromRequest(r)
	assert.Error(t, err)
}

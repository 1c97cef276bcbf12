package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openconf/apiserver/internal/auth"
	"github.com/openconf/apiserver/internal/services"
	"github.com/openconf/apiserver/types"
)

type guardTestEnv struct {
	router chi.Router
	repo   *fakeUserRepo
	guard  *Guard
	issuer *auth.TokenIssuer
}

func newGuardTestEnv(t *testing.T) *guardTestEnv {
	t.Helper()

	repo := newFakeUserRepo()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	userService := services.NewUserService(repo)
	guard := NewGuard(auth.NewResolver(issuer), userService)

	ok := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(guard.PageGuard)
		r.Get("/", ok)
		r.Get("/login", ok)
		r.Get("/signup", ok)
		r.Get("/dashboard", ok)
		r.Get("/admin", ok)
		r.Get("/admin/users", ok)
		r.Get("/reviewers/dashboard", ok)
		r.Get("/authors/dashboard", ok)
	})

	return &guardTestEnv{router: router, repo: repo, guard: guard, issuer: issuer}
}

// seedUser creates a user with the given role and returns a session
// cookie signed for it.
func (env *guardTestEnv) seedUser(t *testing.T, email string, role types.Role) *http.Cookie {
	t.Helper()

	user, err := env.repo.Create(context.Background(), types.User{Email: email, Role: role})
	require.NoError(t, err)

	token, err := env.issuer.Sign(user.ID, user.Email, user.Role)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

func (env *guardTestEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestPageGuardTable(t *testing.T) {
	env := newGuardTestEnv(t)
	author := env.seedUser(t, "author@example.org", types.RoleAuthor)
	reviewer := env.seedUser(t, "reviewer@example.org", types.RoleReviewer)
	admin := env.seedUser(t, "admin@example.org", types.RoleAdmin)

	tests := []struct {
		name     string
		path     string
		cookie   *http.Cookie
		want     int
		location string
	}{
		{"ungated path passes through", "/", nil, http.StatusOK, ""},
		{"anonymous login page", "/login", nil, http.StatusOK, ""},
		{"anonymous dashboard redirects", "/dashboard", nil, http.StatusSeeOther, "/login"},
		{"anonymous admin redirects", "/admin", nil, http.StatusSeeOther, "/login"},
		{"anonymous admin subpath redirects", "/admin/users", nil, http.StatusSeeOther, "/login"},
		{"author on admin bounced home", "/admin", author, http.StatusSeeOther, "/authors/dashboard"},
		{"author on reviewer page bounced home", "/reviewers/dashboard", author, http.StatusSeeOther, "/authors/dashboard"},
		{"author on own dashboard", "/authors/dashboard", author, http.StatusOK, ""},
		{"reviewer on author pages allowed", "/authors/dashboard", reviewer, http.StatusOK, ""},
		{"reviewer on own dashboard", "/reviewers/dashboard", reviewer, http.StatusOK, ""},
		{"reviewer on admin bounced home", "/admin", reviewer, http.StatusSeeOther, "/reviewers/dashboard"},
		{"admin on admin page", "/admin", admin, http.StatusOK, ""},
		{"admin on reviewer page bounced home", "/reviewers/dashboard", admin, http.StatusSeeOther, "/admin"},
		{"authenticated dashboard allowed", "/dashboard", author, http.StatusOK, ""},
		{"authenticated login bounced home", "/login", author, http.StatusSeeOther, "/authors/dashboard"},
		{"authenticated signup bounced home", "/signup", admin, http.StatusSeeOther, "/admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tt.cookie != nil {
				cookies = append(cookies, tt.cookie)
			}
			rec := env.get(tt.path, cookies...)
			assert.Equal(t, tt.want, rec.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, rec.Header().Get("Location"))
			}
		})
	}
}

func TestPageGuardExpiredToken(t *testing.T) {
	env := newGuardTestEnv(t)

	expired := auth.NewTokenIssuer("test-secret", -time.Hour)
	user, err := env.repo.Create(context.Background(), types.User{Email: "late@example.org", Role: types.RoleAuthor})
	require.NoError(t, err)
	token, err := expired.Sign(user.ID, user.Email, user.Role)
	require.NoError(t, err)

	rec := env.get("/dashboard", &http.Cookie{Name: auth.CookieName, Value: token})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestPageGuardDeletedUser(t *testing.T) {
	env := newGuardTestEnv(t)
	cookie := env.seedUser(t, "gone@example.org", types.RoleAuthor)

	user, err := env.repo.GetByEmail(context.Background(), "gone@example.org")
	require.NoError(t, err)
	require.NoError(t, env.repo.Delete(context.Background(), user.ID))

	rec := env.get("/dashboard", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

// A demoted user carries a stale role claim until the token expires;
// the stored role decides where the guard sends them.
func TestPageGuardStoredRoleWins(t *testing.T) {
	env := newGuardTestEnv(t)
	cookie := env.seedUser(t, "demoted@example.org", types.RoleReviewer)

	user, err := env.repo.GetByEmail(context.Background(), "demoted@example.org")
	require.NoError(t, err)
	require.NoError(t, env.repo.UpdateRole(context.Background(), user.ID, types.RoleAuthor))

	rec := env.get("/reviewers/dashboard", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/authors/dashboard", rec.Header().Get("Location"))
}

func TestPageGuardStoreOutage(t *testing.T) {
	env := newGuardTestEnv(t)
	cookie := env.seedUser(t, "author@example.org", types.RoleAuthor)

	env.repo.err = errors.New("connection refused")
	rec := env.get("/dashboard", cookie)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code,
		"store outage is not masked as an auth failure")
}

func TestRequireRole(t *testing.T) {
	env := newGuardTestEnv(t)
	reviewer := env.seedUser(t, "reviewer@example.org", types.RoleReviewer)
	author := env.seedUser(t, "author@example.org", types.RoleAuthor)

	router := chi.NewRouter()
	router.With(env.guard.RequireAuth, env.guard.RequireRole(types.RoleReviewer)).
		Get("/api/papers", func(w http.ResponseWriter, r *http.Request) {
			principal, err := principalFromContext(r.Context())
			require.NoError(t, err)
			assert.Equal(t, types.RoleReviewer, principal.Role)
			w.WriteHeader(http.StatusOK)
		})
	env.router = router

	t.Run("no cookie", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, env.get("/api/papers").Code)
	})
	t.Run("wrong role", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, env.get("/api/papers", author).Code)
	})
	t.Run("allowed role", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, env.get("/api/papers", reviewer).Code)
	})
	t.Run("stale claim rejected after demotion", func(t *testing.T) {
		user, err := env.repo.GetByEmail(context.Background(), "reviewer@example.org")
		require.NoError(t, err)
		require.NoError(t, env.repo.UpdateRole(context.Background(), user.ID, types.RoleAuthor))
		assert.Equal(t, http.StatusForbidden, env.get("/api/papers", reviewer).Code)
	})
	t.Run("store outage", func(t *testing.T) {
		env.repo.err = errors.New("connection refused")
		defer func() { env.repo.err = nil }()
		assert.Equal(t, http.StatusInternalServerError, env.get("/api/papers", reviewer).Code)
	})
}

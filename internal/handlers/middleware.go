package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/openconf/apiserver/internal/auth"
	"github.com/openconf/apiserver/internal/services"
	"github.com/openconf/apiserver/internal/store"
	"github.com/openconf/apiserver/types"
)

// Guard resolves request identity and enforces role rules. The same
// instance backs both the page-level route guard and the per-endpoint
// API checks; the two layers deliberately run independently.
type Guard struct {
	resolver    *auth.Resolver
	userService *services.UserService
}

// NewGuard constructs a Guard over the given resolver and user service.
func NewGuard(resolver *auth.Resolver, userService *services.UserService) *Guard {
	return &Guard{resolver: resolver, userService: userService}
}

// RequireAuth resolves the principal from the session cookie and
// injects it into the request context, or answers 401.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := g.resolver.PrincipalFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
	})
}

// RequireRole re-verifies the caller's role against the credential
// store before letting the handler run. The token's role claim is not
// trusted on its own: the stored role wins, so a demoted user loses
// access the moment the row changes. 401 when the user row is gone,
// 403 on role mismatch.
func (g *Guard) RequireRole(roles ...types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := principalFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			user, err := g.userService.GetByID(r.Context(), principal.UserID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				writeError(w, http.StatusInternalServerError, "failed to load user")
				return
			}

			if !roleAllowed(user.Role, roles) {
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}

			// Context carries the stored role from here on.
			principal.Role = user.Role
			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
		})
	}
}

func roleAllowed(role types.Role, allowed []types.Role) bool {
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}

// pageRule maps a path prefix to the roles allowed under it. A nil
// Roles set means any authenticated user. ReverseGate marks pages that
// authenticated users are bounced away from (login, signup).
type pageRule struct {
	Prefix      string
	Roles       []types.Role
	ReverseGate bool
}

// pageRules is the complete route-guard table. It is evaluated
// longest-prefix-first so /reviewers/dashboard matches /reviewers, not
// a shorter rule.
var pageRules = []pageRule{
	{Prefix: "/dashboard", Roles: nil},
	{Prefix: "/admin", Roles: []types.Role{types.RoleAdmin}},
	{Prefix: "/reviewers", Roles: []types.Role{types.RoleReviewer}},
	{Prefix: "/authors", Roles: []types.Role{types.RoleAuthor, types.RoleReviewer}},
	{Prefix: "/login", ReverseGate: true},
	{Prefix: "/signup", ReverseGate: true},
}

// PageGuard enforces the route table on page paths: unauthenticated
// visitors are redirected to /login, authenticated visitors with the
// wrong role are redirected to their own role's home, and logged-in
// visitors hitting /login or /signup are sent home. Paths outside the
// table pass through untouched.
//
// The role check consults the credential store; if the store is down
// the guard answers 503 rather than masking the outage as an auth
// failure.
func (g *Guard) PageGuard(next http.Handler) http.Handler {
	rules := make([]pageRule, len(pageRules))
	copy(rules, pageRules)
	sort.Slice(rules, func(i, j int) bool {
		return len(rules[i].Prefix) > len(rules[j].Prefix)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule, ok := matchRule(rules, r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		principal, authenticated := g.resolver.PrincipalFromRequest(r)

		if rule.ReverseGate {
			if authenticated {
				http.Redirect(w, r, principal.Role.HomePath(), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if !authenticated {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		// Re-check the role against the store, not the token claim.
		user, err := g.userService.GetByID(r.Context(), principal.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			writeError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}

		if rule.Roles != nil && !roleAllowed(user.Role, rule.Roles) {
			http.Redirect(w, r, user.Role.HomePath(), http.StatusSeeOther)
			return
		}

		principal.Role = user.Role
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
	})
}

func matchRule(rules []pageRule, path string) (pageRule, bool) {
	for _, rule := range rules {
		if path == rule.Prefix || strings.HasPrefix(path, rule.Prefix+"/") {
			return rule, true
		}
	}
	return pageRule{}, false
}

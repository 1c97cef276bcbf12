package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openconf/apiserver/internal/auth"
	"github.com/openconf/apiserver/internal/services"
	"github.com/openconf/apiserver/internal/store"
	"github.com/openconf/apiserver/types"
)

// fakeContentRepo is an in-memory services.ContentRepository.
type fakeContentRepo struct {
	mu       sync.Mutex
	nextID   int
	members  map[int]types.CommitteeMember
	speakers map[int]types.Speaker
	events   map[int]types.Event
	settings map[string]types.Setting
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{
		nextID:   1,
		members:  map[int]types.CommitteeMember{},
		speakers: map[int]types.Speaker{},
		events:   map[int]types.Event{},
		settings: map[string]types.Setting{},
	}
}

func (r *fakeContentRepo) ListCommittee(ctx context.Context) ([]types.CommitteeMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var members []types.CommitteeMember
	for _, m := range r.members {
		members = append(members, m)
	}
	return members, nil
}

func (r *fakeContentRepo) CreateCommitteeMember(ctx context.Context, m types.CommitteeMember) (types.CommitteeMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = r.nextID
	r.nextID++
	r.members[m.ID] = m
	return m, nil
}

func (r *fakeContentRepo) UpdateCommitteeMember(ctx context.Context, m types.CommitteeMember) (types.CommitteeMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[m.ID]; !ok {
		return types.CommitteeMember{}, store.ErrNotFound
	}
	r.members[m.ID] = m
	return m, nil
}

func (r *fakeContentRepo) DeleteCommitteeMember(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.members, id)
	return nil
}

func (r *fakeContentRepo) ListSpeakers(ctx context.Context) ([]types.Speaker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var speakers []types.Speaker
	for _, s := range r.speakers {
		speakers = append(speakers, s)
	}
	return speakers, nil
}

func (r *fakeContentRepo) CreateSpeaker(ctx context.Context, s types.Speaker) (types.Speaker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.nextID
	r.nextID++
	r.speakers[s.ID] = s
	return s, nil
}

func (r *fakeContentRepo) UpdateSpeaker(ctx context.Context, s types.Speaker) (types.Speaker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.speakers[s.ID]; !ok {
		return types.Speaker{}, store.ErrNotFound
	}
	r.speakers[s.ID] = s
	return s, nil
}

func (r *fakeContentRepo) DeleteSpeaker(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.speakers[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.speakers, id)
	return nil
}

func (r *fakeContentRepo) ListEvents(ctx context.Context) ([]types.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var events []types.Event
	for _, e := range r.events {
		events = append(events, e)
	}
	return events, nil
}

func (r *fakeContentRepo) CreateEvent(ctx context.Context, e types.Event) (types.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = r.nextID
	r.nextID++
	r.events[e.ID] = e
	return e, nil
}

func (r *fakeContentRepo) UpdateEvent(ctx context.Context, e types.Event) (types.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[e.ID]; !ok {
		return types.Event{}, store.ErrNotFound
	}
	r.events[e.ID] = e
	return e, nil
}

func (r *fakeContentRepo) DeleteEvent(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *fakeContentRepo) ListSettings(ctx context.Context) ([]types.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var settings []types.Setting
	for _, s := range r.settings {
		settings = append(settings, s)
	}
	return settings, nil
}

func (r *fakeContentRepo) GetSetting(ctx context.Context, key string) (types.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	setting, ok := r.settings[key]
	if !ok {
		return types.Setting{}, store.ErrNotFound
	}
	return setting, nil
}

func (r *fakeContentRepo) UpsertSetting(ctx context.Context, key, value string) (types.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	setting := types.Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	r.settings[key] = setting
	return setting, nil
}

// fakeAuditRepo records audit entries in memory.
type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []types.AuditEntry
}

func (r *fakeAuditRepo) Insert(ctx context.Context, entry types.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) ListRecent(ctx context.Context, limit int) ([]types.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]types.AuditEntry, len(r.entries))
	copy(entries, r.entries)
	return entries, nil
}

type adminTestEnv struct {
	router  chi.Router
	users   *fakeUserRepo
	content *fakeContentRepo
	audit   *fakeAuditRepo
	issuer  *auth.TokenIssuer
}

func newAdminTestEnv(t *testing.T) *adminTestEnv {
	t.Helper()

	users := newFakeUserRepo()
	content := newFakeContentRepo()
	audit := &fakeAuditRepo{}
	logger := testLogger()

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	userService := services.NewUserService(users)
	contentService := services.NewContentService(content)
	auditService := services.NewAuditService(audit, logger)
	guard := NewGuard(auth.NewResolver(issuer), userService)
	handler := NewAdminHandler(contentService, userService, auditService)

	router := chi.NewRouter()
	router.Route("/api/admin", func(r chi.Router) {
		AdminRouter(r, handler, guard)
	})

	return &adminTestEnv{router: router, users: users, content: content, audit: audit, issuer: issuer}
}

func (env *adminTestEnv) login(t *testing.T, email string, role types.Role) *http.Cookie {
	t.Helper()

	user, err := env.users.Create(context.Background(), types.User{Email: email, Role: role})
	require.NoError(t, err)
	token, err := env.issuer.Sign(user.ID, user.Email, user.Role)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

func (env *adminTestEnv) doJSON(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestAdminRouterRoleGate(t *testing.T) {
	env := newAdminTestEnv(t)
	author := env.login(t, "author@example.org", types.RoleAuthor)

	assert.Equal(t, http.StatusUnauthorized, env.doJSON(t, http.MethodGet, "/api/admin/events/", nil, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.doJSON(t, http.MethodGet, "/api/admin/events/", nil, author).Code)
}

func TestCreateEventValidation(t *testing.T) {
	env := newAdminTestEnv(t)
	admin := env.login(t, "admin@example.org", types.RoleAdmin)
	starts := time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		rec := env.doJSON(t, http.MethodPost, "/api/admin/events/", types.Event{
			Title: "Opening Keynote", StartsAt: starts, EndsAt: starts.Add(time.Hour),
		}, admin)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})
	t.Run("missing title", func(t *testing.T) {
		rec := env.doJSON(t, http.MethodPost, "/api/admin/events/", types.Event{
			StartsAt: starts, EndsAt: starts.Add(time.Hour),
		}, admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("ends before starts", func(t *testing.T) {
		rec := env.doJSON(t, http.MethodPost, "/api/admin/events/", types.Event{
			Title: "Backwards", StartsAt: starts, EndsAt: starts.Add(-time.Hour),
		}, admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateEventValidation(t *testing.T) {
	env := newAdminTestEnv(t)
	admin := env.login(t, "admin@example.org", types.RoleAdmin)
	starts := time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)

	created := env.doJSON(t, http.MethodPost, "/api/admin/events/", types.Event{
		Title: "Workshop", StartsAt: starts, EndsAt: starts.Add(2 * time.Hour),
	}, admin)
	require.Equal(t, http.StatusCreated, created.Code)
	var event types.Event
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &event))
	path := "/api/admin/events/" + strconv.Itoa(event.ID)

	t.Run("ends before starts rejected", func(t *testing.T) {
		rec := env.doJSON(t, http.MethodPut, path, types.Event{
			Title: "Workshop", StartsAt: starts, EndsAt: starts.Add(-time.Hour),
		}, admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		// The stored row is untouched.
		events, err := env.content.ListEvents(context.Background())
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.True(t, events[0].EndsAt.After(events[0].StartsAt))
	})
	t.Run("missing title rejected", func(t *testing.T) {
		rec := env.doJSON(t, http.MethodPut, path, types.Event{
			StartsAt: starts, EndsAt: starts.Add(time.Hour),
		}, admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("valid update", func(t *testing.T) {
		rec := env.doJSON(t, http.MethodPut, path, types.Event{
			Title: "Workshop (moved)", StartsAt: starts.Add(time.Hour), EndsAt: starts.Add(3 * time.Hour),
		}, admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated types.Event
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "Workshop (moved)", updated.Title)
	})
	t.Run("unknown event", func(t *testing.T) {
		rec := env.doJSON(t, http.MethodPut, "/api/admin/events/9999", types.Event{
			Title: "Ghost", StartsAt: starts, EndsAt: starts.Add(time.Hour),
		}, admin)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

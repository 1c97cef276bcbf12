package handlers

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/openconf/apiserver/internal/store"
	"github.com/openconf/apiserver/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserRepo is an in-memory services.UserRepository. Setting err
// makes every call fail with it, for store-outage tests.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
	err    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[int]types.User{}}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return types.User{}, r.err
	}
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return types.User{}, r.err
	}
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}
	var users []types.User
	for _, user := range r.users {
		users = append(users, user)
	}
	return users, len(users), nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return types.User{}, r.err
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return types.User{}, r.err
	}
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id int, role types.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.Role = role
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) SetResetToken(ctx context.Context, id int, token string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordResetToken = token
	user.PasswordResetExpires = expires
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) ConsumeResetToken(ctx context.Context, token, passwordHash string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return types.User{}, r.err
	}
	for id, user := range r.users {
		if user.PasswordResetToken == token && user.PasswordResetExpires.After(time.Now()) {
			user.PasswordHash = passwordHash
			user.PasswordResetToken = ""
			user.PasswordResetExpires = time.Time{}
			r.users[id] = user
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

// fakePublisher records published notifications.
type fakePublisher struct {
	mu       sync.Mutex
	messages [][]byte
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, data)
	return "msg-1", nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

// memObjectStorage is an in-memory storage.ObjectStorage.
type memObjectStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjectStorage() *memObjectStorage {
	return &memObjectStorage{objects: map[string][]byte{}}
}

func (s *memObjectStorage) EnsureBucket(ctx context.Context) error { return nil }

func (s *memObjectStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memObjectStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memObjectStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memObjectStorage) Bucket() string { return "test" }

// fakePaperRepo is an in-memory services.PaperRepository.
type fakePaperRepo struct {
	mu     sync.Mutex
	nextID int
	papers map[int]types.Paper
}

func newFakePaperRepo() *fakePaperRepo {
	return &fakePaperRepo{nextID: 1, papers: map[int]types.Paper{}}
}

func (r *fakePaperRepo) Get(ctx context.Context, id int) (types.Paper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	paper, ok := r.papers[id]
	if !ok {
		return types.Paper{}, store.ErrNotFound
	}
	return paper, nil
}

func (r *fakePaperRepo) ListByUser(ctx context.Context, userID int) ([]types.Paper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var papers []types.Paper
	for _, paper := range r.papers {
		if paper.UserID == userID {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}

func (r *fakePaperRepo) List(ctx context.Context, status string, offset, limit int) ([]types.Paper, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var papers []types.Paper
	for _, paper := range r.papers {
		if status == "" || paper.Status == status {
			papers = append(papers, paper)
		}
	}
	return papers, len(papers), nil
}

func (r *fakePaperRepo) Create(ctx context.Context, paper types.Paper) (types.Paper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	paper.ID = r.nextID
	r.nextID++
	paper.Status = types.StatusPending
	now := time.Now()
	paper.CreatedAt = now
	paper.UpdatedAt = now
	r.papers[paper.ID] = paper
	return paper, nil
}

func (r *fakePaperRepo) Decide(ctx context.Context, id int, status, note string, decidedBy int) (types.Paper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	paper, ok := r.papers[id]
	if !ok {
		return types.Paper{}, store.ErrNotFound
	}
	if paper.Status != types.StatusPending {
		return types.Paper{}, store.ErrConflict
	}
	paper.Status = status
	paper.DecisionNote = note
	paper.DecidedBy = decidedBy
	paper.UpdatedAt = time.Now()
	r.papers[id] = paper
	return paper, nil
}

func (r *fakePaperRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.papers[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.papers, id)
	return nil
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openconf/apiserver/types"
)

// resetTokenTTL bounds how long a password-reset link stays valid.
const resetTokenTTL = time.Hour

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context, offset, limit int) ([]types.User, int, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	UpdateRole(ctx context.Context, id int, role types.Role) error
	Delete(ctx context.Context, id int) error
	SetResetToken(ctx context.Context, id int, token string, expires time.Time) error
	ConsumeResetToken(ctx context.Context, token, passwordHash string) (types.User, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

func (s *UserService) Update(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Update(ctx, user)
}

func (s *UserService) UpdateRole(ctx context.Context, id int, role types.Role) error {
	return s.repo.UpdateRole(ctx, id, role)
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// StartPasswordReset generates and stores a fresh single-use reset
// token for the account. The caller decides how (and whether) to
// surface the result; a missing account propagates ErrNotFound so the
// handler can answer generically.
func (s *UserService) StartPasswordReset(ctx context.Context, email string) (types.User, string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return types.User{}, "", err
	}

	token := uuid.NewString()
	expires := time.Now().Add(resetTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, token, expires); err != nil {
		return types.User{}, "", err
	}
	return user, token, nil
}

// CompletePasswordReset consumes the token and installs the new hash.
// The token check and the password update are one guarded statement in
// the repository, so a spent or expired token cannot win.
func (s *UserService) CompletePasswordReset(ctx context.Context, token, passwordHash string) (types.User, error) {
	return s.repo.ConsumeResetToken(ctx, token, passwordHash)
}

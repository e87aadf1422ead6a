package services

import (
	"context"
	"errors"

	"github.com/senpaisearch/apiserver/internal/auth"
	"github.com/senpaisearch/apiserver/internal/store"
	"github.com/senpaisearch/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (types.User, error)
	List(ctx context.Context, offset, limit int) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int) error
}

// UserService encapsulates account use-cases and their authorization
// rules.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// checkUnique fails when the username or email is taken by another
// account. The username is checked first so the caller gets a
// field-specific error. selfID exempts the caller's own record, so an
// update keeping a field is not a conflict; pass 0 on creation.
func (s *UserService) checkUnique(ctx context.Context, username, email string, selfID int) error {
	existing, err := s.repo.GetByUsernameOrEmail(ctx, username, "")
	switch {
	case err == nil:
		if existing.ID != selfID {
			return auth.ErrDuplicateUsername
		}
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	existing, err = s.repo.GetByUsernameOrEmail(ctx, "", email)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return auth.ErrDuplicateEmail
		}
	case !errors.Is(err, store.ErrNotFound):
		return err
	}
	return nil
}

// Register creates a regular account. New accounts get the default role
// and are never superusers.
func (s *UserService) Register(ctx context.Context, username, email, password string) (types.User, error) {
	if err := s.checkUnique(ctx, username, email, 0); err != nil {
		return types.User{}, err
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		Role:         types.RoleAdmin,
		PasswordHash: hashed,
	})
}

// CreateElevated creates an account with an explicit superuser flag.
// Only superusers may call it.
func (s *UserService) CreateElevated(ctx context.Context, actor types.User, username, email, password string, isSuperuser bool) (types.User, error) {
	if err := auth.RequireSuperuser(actor); err != nil {
		return types.User{}, err
	}

	if err := s.checkUnique(ctx, username, email, 0); err != nil {
		return types.User{}, err
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		Role:         types.RoleAdmin,
		IsSuperuser:  isSuperuser,
		PasswordHash: hashed,
	})
}

// List returns accounts for a superuser.
func (s *UserService) List(ctx context.Context, actor types.User, offset, limit int) ([]types.User, error) {
	if err := auth.RequireSuperuser(actor); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Update replaces the credentials of the actor's own account. Accounts
// are self-service: the target must be the actor, superuser or not.
func (s *UserService) Update(ctx context.Context, actor types.User, targetID int, username, email, password string) (types.User, error) {
	if err := auth.RequireSelf(actor, targetID); err != nil {
		return types.User{}, err
	}

	if err := s.checkUnique(ctx, username, email, targetID); err != nil {
		return types.User{}, err
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return types.User{}, err
	}

	actor.Username = username
	actor.Email = email
	actor.PasswordHash = hashed
	return s.repo.Update(ctx, actor)
}

// Delete removes the actor's own account. Same ownership rule as Update.
func (s *UserService) Delete(ctx context.Context, actor types.User, targetID int) error {
	if err := auth.RequireSelf(actor, targetID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, targetID)
}

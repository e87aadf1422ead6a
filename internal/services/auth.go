package services

import (
	"context"
	"errors"

	"github.com/senpaisearch/apiserver/internal/auth"
	"github.com/senpaisearch/apiserver/internal/store"
	"github.com/senpaisearch/apiserver/types"
)

// AuthService issues access tokens for credentials and resolves bearer
// tokens back to accounts. It is the single authentication gate for the
// API: every authenticated request goes through CurrentUser before any
// business logic runs.
type AuthService struct {
	users  UserRepository
	tokens *auth.TokenService
}

func NewAuthService(users UserRepository, tokens *auth.TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Login verifies the credentials and returns a signed access token whose
// subject is the account email. The login name may be a username or an
// email address. Bad login name and bad password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, login, password string) (string, error) {
	user, err := s.users.GetByUsernameOrEmail(ctx, login, login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", auth.ErrInvalidCredentials
		}
		return "", err
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return "", auth.ErrInvalidCredentials
	}

	return s.tokens.Issue(user.Email)
}

// CurrentUser maps a raw bearer token to the account it was issued for.
// A valid token whose account no longer exists fails exactly like a bad
// token, so callers cannot probe for account existence.
func (s *AuthService) CurrentUser(ctx context.Context, rawToken string) (types.User, error) {
	subject, err := s.tokens.Validate(rawToken)
	if err != nil {
		return types.User{}, auth.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, auth.ErrInvalidCredentials
		}
		return types.User{}, err
	}
	return user, nil
}

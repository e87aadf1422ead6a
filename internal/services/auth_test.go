package services

import (
	"context"
	"testing"
	"time"

	"github.com/senpaisearch/apiserver/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (*AuthService, *UserService, *memUserRepo) {
	t.Helper()
	repo := newMemUserRepo()
	tokens, err := auth.NewTokenService("test-secret", "HS256", 30*time.Minute)
	require.NoError(t, err)
	return NewAuthService(repo, tokens), NewUserService(repo), repo
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	ctx := context.Background()
	authService, userService, _ := newAuthFixture(t)

	_, err := userService.Register(ctx, "bogea", "bogea@gmail.com", "bogea123")
	require.NoError(t, err)

	for _, login := range []string{"bogea", "bogea@gmail.com"} {
		token, err := authService.Login(ctx, login, "bogea123")
		require.NoError(t, err, "login %q", login)
		require.NotEmpty(t, token)

		user, err := authService.CurrentUser(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "bogea", user.Username)
		assert.Equal(t, "bogea@gmail.com", user.Email)
	}
}

func TestLoginBadPassword(t *testing.T) {
	ctx := context.Background()
	authService, userService, _ := newAuthFixture(t)

	_, err := userService.Register(ctx, "bogea", "bogea@gmail.com", "bogea123")
	require.NoError(t, err)

	_, err = authService.Login(ctx, "bogea", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginUnknownAccount(t *testing.T) {
	ctx := context.Background()
	authService, _, _ := newAuthFixture(t)

	_, err := authService.Login(ctx, "nobody", "whatever")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestCurrentUserBadToken(t *testing.T) {
	ctx := context.Background()
	authService, _, _ := newAuthFixture(t)

	_, err := authService.CurrentUser(ctx, "not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestCurrentUserDeletedAccount(t *testing.T) {
	ctx := context.Background()
	authService, userService, repo := newAuthFixture(t)

	user, err := userService.Register(ctx, "bogea", "bogea@gmail.com", "bogea123")
	require.NoError(t, err)

	token, err := authService.Login(ctx, "bogea", "bogea123")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, user.ID))

	// A valid token for a vanished account fails exactly like a bad
	// token, never like a missing resource.
	_, err = authService.CurrentUser(ctx, token)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

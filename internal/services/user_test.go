package services

import (
	"context"
	"testing"

	"github.com/senpaisearch/apiserver/internal/auth"
	"github.com/senpaisearch/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDefaults(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newMemUserRepo())

	user, err := svc.Register(ctx, "bogea", "bogea@gmail.com", "bogea123")
	require.NoError(t, err)

	assert.Equal(t, types.RoleAdmin, user.Role)
	assert.False(t, user.IsSuperuser)
	assert.NotEqual(t, "bogea123", user.PasswordHash)
	assert.True(t, auth.VerifyPassword("bogea123", user.PasswordHash))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newMemUserRepo())

	_, err := svc.Register(ctx, "bogea", "bogea@gmail.com", "bogea123")
	require.NoError(t, err)

	// Same username, different email: the username error wins.
	_, err = svc.Register(ctx, "bogea", "other@gmail.com", "bogea123")
	assert.ErrorIs(t, err, auth.ErrDuplicateUsername)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newMemUserRepo())

	_, err := svc.Register(ctx, "bogea", "bogea@gmail.com", "bogea123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "bogea@gmail.com", "bogea123")
	assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
}

func TestRegisterDuplicateUsernameCheckedFirst(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newMemUserRepo())

	_, err := svc.Register(ctx, "bogea", "bogea@gmail.com", "bogea123")
	require.NoError(t, err)

	// Both fields collide; the username error must be reported.
	_, err = svc.Register(ctx, "bogea", "bogea@gmail.com", "bogea123")
	assert.ErrorIs(t, err, auth.ErrDuplicateUsername)
}

func TestCreateElevatedRequiresSuperuser(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	svc := NewUserService(repo)

	regular, err := svc.Register(ctx, "bogea", "bogea@gmail.com", "bogea123")
	require.NoError(t, err)

	_, err = svc.CreateElevated(ctx, regular, "mod", "mod@gmail.com", "secret", true)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	regular.IsSuperuser = true
	_, err = repo.Update(ctx, regular)
	require.NoError(t, err)

	created, err := svc.CreateElevated(ctx, regular, "mod", "mod@gmail.com", "secret", true)
	require.NoError(t, err)
	assert.True(t, created.IsSuperuser)
}

func TestListRequiresSuperuser(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newMemUserRepo())

	regular, err := svc.Register(ctx, "bogea", "bogea@gmail.com", "bogea123")
	require.NoError(t, err)

	_, err = svc.List(ctx, regular, 0, 100)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	regular.IsSuperuser = true
	users, err := svc.List(ctx, regular, 0, 100)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUpdateSelfOnly(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newMemUserRepo())

	first, err := svc.Register(ctx, "bogea", "bogea@gmail.com", "bogea123")
	require.NoError(t, err)
	second, err := svc.Register(ctx, "alice", "alice@gmail.com", "alice123")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, first, first.ID, "bogea2", "bogea2@gmail.com", "newpass")
	require.NoError(t, err)
	assert.Equal(t, "bogea2", updated.Username)

	_, err = svc.Update(ctx, first, second.ID, "x", "x@gmail.com", "x")
	assert.ErrorIs(t, err, auth.ErrForbidden)

	// Ownership beats role: the superuser flag does not open another
	// user's record on this path.
	first.IsSuperuser = true
	_, err = svc.Update(ctx, first, second.ID, "x", "x@gmail.com", "x")
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestUpdateDuplicateCredentials(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newMemUserRepo())

	first, err := svc.Register(ctx, "bogea", "bogea@gmail.com", "bogea123")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice", "alice@gmail.com", "alice123")
	require.NoError(t, err)

	// Taking another account's username or email is a conflict, not a
	// storage error.
	_, err = svc.Update(ctx, first, first.ID, "alice", "bogea@gmail.com", "newpass")
	assert.ErrorIs(t, err, auth.ErrDuplicateUsername)

	_, err = svc.Update(ctx, first, first.ID, "bogea", "alice@gmail.com", "newpass")
	assert.ErrorIs(t, err, auth.ErrDuplicateEmail)

	// Keeping one's own username and email is not a conflict.
	updated, err := svc.Update(ctx, first, first.ID, "bogea", "bogea@gmail.com", "newpass")
	require.NoError(t, err)
	assert.Equal(t, "bogea", updated.Username)
}

func TestDeleteSelfOnly(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newMemUserRepo())

	first, err := svc.Register(ctx, "bogea", "bogea@gmail.com", "bogea123")
	require.NoError(t, err)
	second, err := svc.Register(ctx, "alice", "alice@gmail.com", "alice123")
	require.NoError(t, err)

	first.IsSuperuser = true
	err = svc.Delete(ctx, first, second.ID)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, second, second.ID))
	_, err = svc.GetByID(ctx, second.ID)
	assert.Error(t, err)
}

package auth

import (
	"testing"

	"github.com/senpaisearch/apiserver/types"
	"github.com/stretchr/testify/assert"
)

func TestRequireSuperuser(t *testing.T) {
	assert.NoError(t, RequireSuperuser(types.User{ID: 1, IsSuperuser: true}))
	assert.ErrorIs(t, RequireSuperuser(types.User{ID: 1}), ErrForbidden)
	assert.ErrorIs(t, RequireSuperuser(types.User{ID: 1, Role: types.RoleAdmin}), ErrForbidden)
}

func TestRequireSelf(t *testing.T) {
	assert.NoError(t, RequireSelf(types.User{ID: 7}, 7))
	assert.ErrorIs(t, RequireSelf(types.User{ID: 7}, 8), ErrForbidden)

	// The superuser flag grants nothing here: ownership is the only
	// check on account mutation.
	assert.ErrorIs(t, RequireSelf(types.User{ID: 7, IsSuperuser: true}, 8), ErrForbidden)
}

func TestRequireOwnerOrRole(t *testing.T) {
	assert.NoError(t, RequireOwnerOrRole(types.User{ID: 7}, 7, types.RoleAdmin))
	assert.NoError(t, RequireOwnerOrRole(types.User{ID: 7, Role: types.RoleAdmin}, 8, types.RoleAdmin))
	assert.ErrorIs(t, RequireOwnerOrRole(types.User{ID: 7, Role: "viewer"}, 8, types.RoleAdmin), ErrForbidden)

	// Superuser is a separate axis and does not satisfy the role check.
	assert.ErrorIs(t, RequireOwnerOrRole(types.User{ID: 7, Role: "viewer", IsSuperuser: true}, 8, types.RoleAdmin), ErrForbidden)
}

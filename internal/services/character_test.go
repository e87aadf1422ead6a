package services

import (
	"context"
	"testing"

	"github.com/senpaisearch/apiserver/internal/auth"
	"github.com/senpaisearch/apiserver/internal/store"
	"github.com/senpaisearch/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCharacterFixture() (*CharacterService, *memCharacterRepo) {
	repo := newMemCharacterRepo()
	return NewCharacterService(repo, nil, nil, "", nil), repo
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestCharacterCreateSetsOwner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCharacterFixture()
	owner := types.User{ID: 7, Role: types.RoleAdmin}

	created, err := svc.Create(ctx, owner, CharacterInput{
		Name:      "Levi",
		Age:       intPtr(34),
		Anime:     "Attack on Titan",
		Hierarchy: "Captain",
	})
	require.NoError(t, err)

	assert.Equal(t, 7, created.UserID)
	assert.Equal(t, "Levi", created.Name)
	require.NotNil(t, created.Age)
	assert.Equal(t, 34, *created.Age)
}

func TestCharacterListOwnedScopedToOwner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCharacterFixture()
	first := types.User{ID: 1, Role: types.RoleAdmin}
	second := types.User{ID: 2, Role: types.RoleAdmin}

	_, err := svc.Create(ctx, first, CharacterInput{Name: "Levi", Anime: "Attack on Titan"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, second, CharacterInput{Name: "Gojo", Anime: "Jujutsu Kaisen"})
	require.NoError(t, err)

	owned, err := svc.ListOwned(ctx, first, types.CharacterFilter{})
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "Levi", owned[0].Name)
}

func TestCharacterSearchCatalogCrossesOwners(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCharacterFixture()

	_, err := svc.Create(ctx, types.User{ID: 1}, CharacterInput{Name: "Levi", Anime: "Attack on Titan"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, types.User{ID: 2}, CharacterInput{Name: "Gojo", Anime: "Jujutsu Kaisen"})
	require.NoError(t, err)

	all, err := svc.SearchCatalog(ctx, types.CharacterFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.SearchCatalog(ctx, types.CharacterFilter{Anime: "jujutsu"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Gojo", filtered[0].Name)
}

func TestCharacterGetOwnerOrAdminRole(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCharacterFixture()
	owner := types.User{ID: 1, Role: types.RoleAdmin}

	created, err := svc.Create(ctx, owner, CharacterInput{Name: "Levi", Anime: "Attack on Titan"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, owner, created.ID)
	require.NoError(t, err)

	admin := types.User{ID: 2, Role: types.RoleAdmin}
	_, err = svc.Get(ctx, admin, created.ID)
	require.NoError(t, err)

	stranger := types.User{ID: 3, Role: "viewer"}
	_, err = svc.Get(ctx, stranger, created.ID)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestCharacterPatchPartialUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCharacterFixture()
	owner := types.User{ID: 1, Role: types.RoleAdmin}

	created, err := svc.Create(ctx, owner, CharacterInput{
		Name:      "Levi",
		Age:       intPtr(34),
		Anime:     "Attack on Titan",
		Hierarchy: "Captain",
		Abilities: "ODM mastery",
	})
	require.NoError(t, err)

	updated, err := svc.Patch(ctx, owner, created.ID, CharacterPatch{
		Hierarchy: strPtr("Squad Captain"),
		Age:       intPtr(35),
	})
	require.NoError(t, err)

	assert.Equal(t, "Squad Captain", updated.Hierarchy)
	require.NotNil(t, updated.Age)
	assert.Equal(t, 35, *updated.Age)
	// Untouched fields survive the patch.
	assert.Equal(t, "Levi", updated.Name)
	assert.Equal(t, "ODM mastery", updated.Abilities)
}

func TestCharacterPatchForbiddenWithoutOwnershipOrRole(t *testing.T) {
	ctx := context.Background()
	svc, repo := newCharacterFixture()
	owner := types.User{ID: 1, Role: types.RoleAdmin}

	created, err := svc.Create(ctx, owner, CharacterInput{Name: "Levi", Anime: "Attack on Titan"})
	require.NoError(t, err)

	stranger := types.User{ID: 2, Role: "viewer", IsSuperuser: true}
	_, err = svc.Patch(ctx, stranger, created.ID, CharacterPatch{Name: strPtr("Eren")})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	stored, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Levi", stored.Name)
}

func TestCharacterDelete(t *testing.T) {
	ctx := context.Background()
	svc, repo := newCharacterFixture()
	owner := types.User{ID: 1, Role: types.RoleAdmin}

	created, err := svc.Create(ctx, owner, CharacterInput{Name: "Levi", Anime: "Attack on Titan"})
	require.NoError(t, err)

	stranger := types.User{ID: 2, Role: "viewer"}
	err = svc.Delete(ctx, stranger, created.ID)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, owner, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCharacterNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCharacterFixture()
	actor := types.User{ID: 1, Role: types.RoleAdmin}

	_, err := svc.Get(ctx, actor, 42)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Patch(ctx, actor, 42, CharacterPatch{Name: strPtr("Eren")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = svc.Delete(ctx, actor, 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPortraitEndpointsWithoutStorage(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCharacterFixture()
	owner := types.User{ID: 1, Role: types.RoleAdmin}

	created, err := svc.Create(ctx, owner, CharacterInput{Name: "Levi", Anime: "Attack on Titan"})
	require.NoError(t, err)

	_, err = svc.UploadPortrait(ctx, owner, created.ID, nil, 0, "image/png")
	assert.ErrorIs(t, err, ErrNoPortraitStorage)

	_, err = svc.OpenPortrait(ctx, owner, created.ID)
	assert.ErrorIs(t, err, ErrNoPortraitStorage)
}

package services

import (
	"context"
	"strings"
	"time"

	"github.com/senpaisearch/apiserver/internal/store"
	"github.com/senpaisearch/apiserver/types"
)

// memUserRepo is an in-memory UserRepository for tests.
type memUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int]types.User{}, nextID: 1}
}

func (r *memUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) GetByUsernameOrEmail(_ context.Context, username, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Username == username || user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) List(_ context.Context, offset, limit int) ([]types.User, error) {
	users := make([]types.User, 0, len(r.users))
	for id := 1; id < r.nextID; id++ {
		if user, ok := r.users[id]; ok {
			users = append(users, user)
		}
	}
	if offset >= len(users) {
		return nil, nil
	}
	users = users[offset:]
	if limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

func (r *memUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	user.ID = r.nextID
	r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// memCharacterRepo is an in-memory CharacterRepository for tests.
type memCharacterRepo struct {
	characters map[int]types.Character
	nextID     int
}

func newMemCharacterRepo() *memCharacterRepo {
	return &memCharacterRepo{characters: map[int]types.Character{}, nextID: 1}
}

func (r *memCharacterRepo) Get(_ context.Context, id int) (types.Character, error) {
	ch, ok := r.characters[id]
	if !ok {
		return types.Character{}, store.ErrNotFound
	}
	return ch, nil
}

func (r *memCharacterRepo) Search(_ context.Context, ownerID int, filter types.CharacterFilter) ([]types.Character, error) {
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	matches := make([]types.Character, 0)
	for id := 1; id < r.nextID; id++ {
		ch, ok := r.characters[id]
		if !ok {
			continue
		}
		if ownerID != 0 && ch.UserID != ownerID {
			continue
		}
		if filter.Anime != "" && !strings.Contains(strings.ToLower(ch.Anime), strings.ToLower(filter.Anime)) {
			continue
		}
		if filter.Hierarchy != "" && !strings.Contains(strings.ToLower(ch.Hierarchy), strings.ToLower(filter.Hierarchy)) {
			continue
		}
		matches = append(matches, ch)
		if len(matches) == limit {
			break
		}
	}
	return matches, nil
}

func (r *memCharacterRepo) Create(_ context.Context, ch types.Character) (types.Character, error) {
	ch.ID = r.nextID
	r.nextID++
	now := time.Now()
	ch.CreatedAt = now
	ch.UpdatedAt = now
	r.characters[ch.ID] = ch
	return ch, nil
}

func (r *memCharacterRepo) Update(_ context.Context, ch types.Character) (types.Character, error) {
	if _, ok := r.characters[ch.ID]; !ok {
		return types.Character{}, store.ErrNotFound
	}
	ch.UpdatedAt = time.Now()
	r.characters[ch.ID] = ch
	return ch, nil
}

func (r *memCharacterRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.characters[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.characters, id)
	return nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/senpaisearch/apiserver/internal/auth"
	"github.com/senpaisearch/apiserver/internal/mq"
	"github.com/senpaisearch/apiserver/internal/storage"
	"github.com/senpaisearch/apiserver/internal/store"
	"github.com/senpaisearch/apiserver/types"
)

// ErrNoPortraitStorage is returned when portrait endpoints are used
// without a configured object storage backend.
var ErrNoPortraitStorage = errors.New("portrait storage is not configured")

// CharacterRepository defines persistence operations for characters.
type CharacterRepository interface {
	Get(ctx context.Context, id int) (types.Character, error)
	Search(ctx context.Context, ownerID int, filter types.CharacterFilter) ([]types.Character, error)
	Create(ctx context.Context, ch types.Character) (types.Character, error)
	Update(ctx context.Context, ch types.Character) (types.Character, error)
	Delete(ctx context.Context, id int) error
}

// CharacterInput carries the fields for creating a character.
type CharacterInput struct {
	Name           string
	Age            *int
	Anime          string
	Hierarchy      string
	Abilities      string
	NotableMoments string
}

// CharacterPatch carries partial updates. Nil fields are left unchanged.
type CharacterPatch struct {
	Name           *string
	Age            *int
	Anime          *string
	Hierarchy      *string
	Abilities      *string
	NotableMoments *string
}

// Character change event names carried in the published payload and in
// the message attributes.
const (
	EventCharacterCreated = "created"
	EventCharacterUpdated = "updated"
	EventCharacterDeleted = "deleted"
)

// CharacterEvent is the payload published on character mutations for
// downstream consumers such as the search indexer.
type CharacterEvent struct {
	Event     string          `json:"event"`
	Character types.Character `json:"character"`
}

// CharacterService encapsulates character use-cases: owned CRUD, the
// public catalog search, portrait storage, and change events.
type CharacterService struct {
	repo          CharacterRepository
	portraits     *storage.Storage
	events        *mq.MQ
	eventsChannel string
	logger        *slog.Logger
}

// NewCharacterService constructs a CharacterService. portraits and events
// may be nil; the corresponding features are then disabled.
func NewCharacterService(repo CharacterRepository, portraits *storage.Storage, events *mq.MQ, eventsChannel string, logger *slog.Logger) *CharacterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CharacterService{
		repo:          repo,
		portraits:     portraits,
		events:        events,
		eventsChannel: eventsChannel,
		logger:        logger,
	}
}

// Create stores a new character owned by the caller.
func (s *CharacterService) Create(ctx context.Context, owner types.User, in CharacterInput) (types.Character, error) {
	created, err := s.repo.Create(ctx, types.Character{
		Name:           in.Name,
		Age:            in.Age,
		Anime:          in.Anime,
		Hierarchy:      in.Hierarchy,
		Abilities:      in.Abilities,
		NotableMoments: in.NotableMoments,
		UserID:         owner.ID,
	})
	if err != nil {
		return types.Character{}, err
	}
	s.publish(ctx, EventCharacterCreated, created)
	return created, nil
}

// ListOwned returns the caller's characters matching the filter.
func (s *CharacterService) ListOwned(ctx context.Context, owner types.User, filter types.CharacterFilter) ([]types.Character, error) {
	return s.repo.Search(ctx, owner.ID, filter)
}

// SearchCatalog searches the whole catalog. This is the public,
// rate-limited surface of the service.
func (s *CharacterService) SearchCatalog(ctx context.Context, filter types.CharacterFilter) ([]types.Character, error) {
	return s.repo.Search(ctx, 0, filter)
}

// Get returns a character to its owner or to an admin-role holder.
func (s *CharacterService) Get(ctx context.Context, actor types.User, id int) (types.Character, error) {
	ch, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Character{}, err
	}
	if err := auth.RequireOwnerOrRole(actor, ch.UserID, types.RoleAdmin); err != nil {
		return types.Character{}, err
	}
	return ch, nil
}

// Patch applies a partial update. The actor must own the character or
// hold the admin role.
func (s *CharacterService) Patch(ctx context.Context, actor types.User, id int, patch CharacterPatch) (types.Character, error) {
	ch, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Character{}, err
	}
	if err := auth.RequireOwnerOrRole(actor, ch.UserID, types.RoleAdmin); err != nil {
		return types.Character{}, err
	}

	if patch.Name != nil {
		ch.Name = *patch.Name
	}
	if patch.Age != nil {
		ch.Age = patch.Age
	}
	if patch.Anime != nil {
		ch.Anime = *patch.Anime
	}
	if patch.Hierarchy != nil {
		ch.Hierarchy = *patch.Hierarchy
	}
	if patch.Abilities != nil {
		ch.Abilities = *patch.Abilities
	}
	if patch.NotableMoments != nil {
		ch.NotableMoments = *patch.NotableMoments
	}

	updated, err := s.repo.Update(ctx, ch)
	if err != nil {
		return types.Character{}, err
	}
	s.publish(ctx, EventCharacterUpdated, updated)
	return updated, nil
}

// Delete removes a character. Same authorization rule as Patch. The
// portrait, if any, is removed from object storage on a best-effort
// basis.
func (s *CharacterService) Delete(ctx context.Context, actor types.User, id int) error {
	ch, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.RequireOwnerOrRole(actor, ch.UserID, types.RoleAdmin); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.portraits != nil && ch.PortraitKey != "" {
		if err := s.portraits.Delete(ctx, ch.PortraitKey); err != nil {
			s.logger.Warn("failed to delete portrait", "key", ch.PortraitKey, "error", err)
		}
	}
	s.publish(ctx, EventCharacterDeleted, ch)
	return nil
}

// UploadPortrait stores a portrait image for the character and records
// its object key.
func (s *CharacterService) UploadPortrait(ctx context.Context, actor types.User, id int, r io.Reader, size int64, contentType string) (types.Character, error) {
	if s.portraits == nil {
		return types.Character{}, ErrNoPortraitStorage
	}

	ch, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Character{}, err
	}
	if err := auth.RequireOwnerOrRole(actor, ch.UserID, types.RoleAdmin); err != nil {
		return types.Character{}, err
	}

	key := fmt.Sprintf("portraits/%d", ch.ID)
	if err := s.portraits.Put(ctx, key, r, size, contentType); err != nil {
		return types.Character{}, err
	}

	ch.PortraitKey = key
	updated, err := s.repo.Update(ctx, ch)
	if err != nil {
		return types.Character{}, err
	}
	s.publish(ctx, EventCharacterUpdated, updated)
	return updated, nil
}

// OpenPortrait opens the character's portrait for streaming. Missing
// portraits surface as store.ErrNotFound.
func (s *CharacterService) OpenPortrait(ctx context.Context, actor types.User, id int) (io.ReadCloser, error) {
	if s.portraits == nil {
		return nil, ErrNoPortraitStorage
	}

	ch, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwnerOrRole(actor, ch.UserID, types.RoleAdmin); err != nil {
		return nil, err
	}
	if ch.PortraitKey == "" {
		return nil, store.ErrNotFound
	}
	return s.portraits.Get(ctx, ch.PortraitKey)
}

// publish emits a character change event. Failures are logged, never
// surfaced: the mutation has already committed.
func (s *CharacterService) publish(ctx context.Context, event string, ch types.Character) {
	if s.events == nil {
		return
	}

	data, err := json.Marshal(CharacterEvent{Event: event, Character: ch})
	if err != nil {
		s.logger.Error("failed to encode character event", "event", event, "error", err)
		return
	}
	if _, err := s.events.Publish(ctx, s.eventsChannel, data, map[string]string{"event": event}); err != nil {
		s.logger.Warn("failed to publish character event", "event", event, "character_id", ch.ID, "error", err)
	}
}

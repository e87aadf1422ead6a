package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/senpaisearch/apiserver/internal/services"
	"github.com/senpaisearch/apiserver/internal/store"
	"github.com/senpaisearch/apiserver/types"
)

const maxPortraitBytes = 8 << 20

// CharacterHandler provides HTTP handlers for characters.
type CharacterHandler struct {
	characterService *services.CharacterService
}

// NewCharacterHandler constructs a handler with the provided service.
func NewCharacterHandler(characterService *services.CharacterService) *CharacterHandler {
	return &CharacterHandler{characterService: characterService}
}

// CharacterRouter registers character routes on the given router. The
// catalog search is the only endpoint outside the auth wall, and the only
// one behind the rate limiter.
func CharacterRouter(
	r chi.Router,
	characterService *services.CharacterService,
	authMiddleware func(http.Handler) http.Handler,
	optionalAuthMiddleware func(http.Handler) http.Handler,
	rateLimitMiddleware func(http.Handler) http.Handler,
) {
	handler := NewCharacterHandler(characterService)

	r.With(authMiddleware).Post("/", handler.CreateCharacter)
	r.With(authMiddleware).Get("/", handler.ListCharacters)
	r.With(optionalAuthMiddleware, rateLimitMiddleware).Get("/search", handler.SearchCharacters)
	r.Route("/{characterID}", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", handler.GetCharacter)
		r.Patch("/", handler.PatchCharacter)
		r.Delete("/", handler.DeleteCharacter)
		r.Post("/portrait", handler.UploadPortrait)
		r.Get("/portrait", handler.GetPortrait)
	})
}

// CharacterResponse is the public view of a character record.
type CharacterResponse struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Age            *int   `json:"age"`
	Anime          string `json:"anime"`
	Hierarchy      string `json:"hierarchy"`
	Abilities      string `json:"abilities"`
	NotableMoments string `json:"notable_moments"`
}

// CharacterListResponse wraps a list of public character views.
type CharacterListResponse struct {
	Characters []CharacterResponse `json:"characters"`
}

func toCharacterResponse(ch types.Character) CharacterResponse {
	return CharacterResponse{
		ID:             ch.ID,
		Name:           ch.Name,
		Age:            ch.Age,
		Anime:          ch.Anime,
		Hierarchy:      ch.Hierarchy,
		Abilities:      ch.Abilities,
		NotableMoments: ch.NotableMoments,
	}
}

func toCharacterListResponse(characters []types.Character) CharacterListResponse {
	resp := CharacterListResponse{Characters: make([]CharacterResponse, 0, len(characters))}
	for _, ch := range characters {
		resp.Characters = append(resp.Characters, toCharacterResponse(ch))
	}
	return resp
}

// CharacterCreateRequest carries the fields for creating a character.
type CharacterCreateRequest struct {
	Name           string `json:"name"`
	Age            *int   `json:"age"`
	Anime          string `json:"anime"`
	Hierarchy      string `json:"hierarchy"`
	Abilities      string `json:"abilities"`
	NotableMoments string `json:"notable_moments"`
}

// CharacterPatchRequest carries partial updates; absent fields stay as
// they are.
type CharacterPatchRequest struct {
	Name           *string `json:"name"`
	Age            *int    `json:"age"`
	Anime          *string `json:"anime"`
	Hierarchy      *string `json:"hierarchy"`
	Abilities      *string `json:"abilities"`
	NotableMoments *string `json:"notable_moments"`
}

// CreateCharacter stores a new character owned by the caller.
func (h *CharacterHandler) CreateCharacter(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CharacterCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Anime = strings.TrimSpace(req.Anime)
	req.Hierarchy = strings.TrimSpace(req.Hierarchy)
	if req.Name == "" || req.Anime == "" || req.Hierarchy == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	created, err := h.characterService.Create(r.Context(), actor, services.CharacterInput{
		Name:           req.Name,
		Age:            req.Age,
		Anime:          req.Anime,
		Hierarchy:      req.Hierarchy,
		Abilities:      req.Abilities,
		NotableMoments: req.NotableMoments,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create character")
		return
	}

	writeJSON(w, http.StatusCreated, toCharacterResponse(created))
}

// ListCharacters returns the caller's characters matching the filter.
func (h *CharacterHandler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter, err := parseCharacterFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	characters, err := h.characterService.ListOwned(r.Context(), actor, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list characters")
		return
	}

	writeJSON(w, http.StatusOK, toCharacterListResponse(characters))
}

// SearchCharacters searches the whole catalog. No authentication needed;
// the rate limiter upstream throttles anonymous and non-admin traffic.
func (h *CharacterHandler) SearchCharacters(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCharacterFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	characters, err := h.characterService.SearchCatalog(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to search characters")
		return
	}

	writeJSON(w, http.StatusOK, toCharacterListResponse(characters))
}

// GetCharacter returns one character to its owner or an admin.
func (h *CharacterHandler) GetCharacter(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseCharacterID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ch, err := h.characterService.Get(r.Context(), actor, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "character not found")
			return
		}
		writeAuthError(w, err, "failed to fetch character")
		return
	}

	writeJSON(w, http.StatusOK, toCharacterResponse(ch))
}

// PatchCharacter applies a partial update.
func (h *CharacterHandler) PatchCharacter(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseCharacterID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CharacterPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.characterService.Patch(r.Context(), actor, id, services.CharacterPatch{
		Name:           req.Name,
		Age:            req.Age,
		Anime:          req.Anime,
		Hierarchy:      req.Hierarchy,
		Abilities:      req.Abilities,
		NotableMoments: req.NotableMoments,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "character not found")
			return
		}
		writeAuthError(w, err, "failed to update character")
		return
	}

	writeJSON(w, http.StatusOK, toCharacterResponse(updated))
}

// DeleteCharacter removes a character.
func (h *CharacterHandler) DeleteCharacter(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseCharacterID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.characterService.Delete(r.Context(), actor, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "character not found")
			return
		}
		writeAuthError(w, err, "failed to delete character")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Character has been deleted successfully."})
}

// UploadPortrait stores a portrait image for the character.
func (h *CharacterHandler) UploadPortrait(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseCharacterID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxPortraitBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("portrait")
	if err != nil {
		writeError(w, http.StatusBadRequest, "portrait file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	updated, err := h.characterService.UploadPortrait(r.Context(), actor, id, file, header.Size, contentType)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "character not found")
		case errors.Is(err, services.ErrNoPortraitStorage):
			writeError(w, http.StatusNotImplemented, services.ErrNoPortraitStorage.Error())
		default:
			writeAuthError(w, err, "failed to upload portrait")
		}
		return
	}

	writeJSON(w, http.StatusOK, toCharacterResponse(updated))
}

// GetPortrait streams the character's portrait back to the caller.
func (h *CharacterHandler) GetPortrait(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseCharacterID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reader, err := h.characterService.OpenPortrait(r.Context(), actor, id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "portrait not found")
		case errors.Is(err, services.ErrNoPortraitStorage):
			writeError(w, http.StatusNotImplemented, services.ErrNoPortraitStorage.Error())
		default:
			writeAuthError(w, err, "failed to fetch portrait")
		}
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

func parseCharacterID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "characterID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid character id")
	}
	return id, nil
}

func parseCharacterFilter(r *http.Request) (types.CharacterFilter, error) {
	filter := types.CharacterFilter{
		Anime:     strings.TrimSpace(r.URL.Query().Get("anime")),
		Hierarchy: strings.TrimSpace(r.URL.Query().Get("hierarchy")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return types.CharacterFilter{}, errors.New("invalid limit")
		}
		filter.Limit = limit
	}
	return filter, nil
}

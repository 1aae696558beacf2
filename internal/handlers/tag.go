package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/notable-app/apiserver/internal/services"
	"github.com/notable-app/apiserver/internal/store"
	"github.com/notable-app/apiserver/types"
)

// TagHandler provides HTTP handlers for tags. All tag operations are
// scoped to the acting owner.
type TagHandler struct {
	tagService *services.TagService
}

func NewTagHandler(tagService *services.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// TagRouter registers tag routes on the given router.
func TagRouter(r chi.Router, tagService *services.TagService) {
	handler := NewTagHandler(tagService)

	r.Post("/", handler.CreateTag)
	r.Get("/", handler.ListTags)
	r.Get("/search", handler.SearchTags)

	r.Route("/{tagID}", func(r chi.Router) {
		r.Get("/", handler.GetTag)
		r.Put("/", handler.UpdateTag)
		r.Delete("/", handler.DeleteTag)
		r.Get("/notes", handler.NotesByTag)
	})
}

type TagCreateRequest struct {
	UserID int    `json:"userId"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

func (h *TagHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req TagCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	userID, err := resolveOwner(r, req.UserID)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	tag, err := h.tagService.Create(r.Context(), types.Tag{
		UserID: userID,
		Name:   name,
		Color:  strings.TrimSpace(req.Color),
	})
	if err != nil {
		writeDomainError(w, err, "tag not found")
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerFromQuery(r)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	tags, err := h.tagService.List(r.Context(), store.TagFilter{UserID: userID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// SearchTags matches the query against the user's tag names.
func (h *TagHandler) SearchTags(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerFromQuery(r)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "search query is required")
		return
	}

	tags, err := h.tagService.List(r.Context(), store.TagFilter{UserID: userID, Keyword: query})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *TagHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.scopedTagID(w, r)
	if !ok {
		return
	}

	tag, err := h.tagService.Get(r.Context(), id, userID)
	if err != nil {
		writeDomainError(w, err, "tag not found")
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

type TagUpdateRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (h *TagHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.scopedTagID(w, r)
	if !ok {
		return
	}

	var req TagUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			writeError(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		req.Name = &trimmed
	}

	tag, err := h.tagService.Update(r.Context(), id, userID, services.TagUpdate{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		writeDomainError(w, err, "tag not found")
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// DeleteTag removes the tag. Notes keep their tag id lists untouched;
// stale references are simply ignored by tag filters.
func (h *TagHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.scopedTagID(w, r)
	if !ok {
		return
	}

	if err := h.tagService.Delete(r.Context(), id, userID); err != nil {
		writeDomainError(w, err, "tag not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NotesByTag returns the owner's non-trashed notes carrying the tag.
func (h *TagHandler) NotesByTag(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.scopedTagID(w, r)
	if !ok {
		return
	}

	notes, err := h.tagService.NotesByTag(r.Context(), id, userID)
	if err != nil {
		writeDomainError(w, err, "tag not found")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// scopedTagID parses the tag id and resolves the acting owner,
// writing the error response itself on failure.
func (h *TagHandler) scopedTagID(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	id, err := parseTagID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}

	userID, err := ownerFromQuery(r)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return 0, 0, false
	}
	return id, userID, true
}

func parseTagID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "tagID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid tag id")
	}
	return id, nil
}

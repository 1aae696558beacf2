package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/notable-app/apiserver/internal/services"
	"github.com/notable-app/apiserver/internal/store"
	"github.com/notable-app/apiserver/types"
)

// NoteHandler provides HTTP handlers for notes and the trash.
type NoteHandler struct {
	noteService *services.NoteService
}

func NewNoteHandler(noteService *services.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// NoteRouter registers note routes on the given router.
func NoteRouter(r chi.Router, noteService *services.NoteService) {
	handler := NewNoteHandler(noteService)

	r.Post("/", handler.CreateNote)
	r.Get("/", handler.ListAllNotes)
	r.With(requireAdmin).Delete("/", handler.DeleteAllNotes)

	r.Get("/user", handler.ListUserNotes)
	r.Get("/search", handler.SearchNotes)
	r.Get("/trash", handler.ListTrash)
	r.Get("/trash/search", handler.SearchTrash)

	r.Route("/{noteID}", func(r chi.Router) {
		r.Get("/", handler.GetNote)
		r.Put("/", handler.UpdateNote)
		r.Delete("/", handler.DeleteNote)
		r.Put("/trash", handler.TrashNote)
		r.Put("/restore", handler.RestoreNote)
		r.Patch("/done", handler.ToggleDone)
	})
}

type NoteCreateRequest struct {
	UserID  int    `json:"userId"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Tags    []int  `json:"tags"`
	Done    bool   `json:"done"`
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req NoteCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if utf8.RuneCountInString(title) > types.MaxNoteTitleLength {
		writeError(w, http.StatusBadRequest, "title must be at most 150 characters")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	userID, err := resolveOwner(r, req.UserID)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	note, err := h.noteService.Create(r.Context(), types.Note{
		UserID:  userID,
		Title:   title,
		Content: req.Content,
		Tags:    req.Tags,
		Done:    req.Done,
	})
	if err != nil {
		writeDomainError(w, err, "note not found")
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// ListAllNotes returns every non-trashed note across all users.
func (h *NoteHandler) ListAllNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.noteService.ListAllActive(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// DeleteAllNotes permanently removes every note. Admin only.
func (h *NoteHandler) DeleteAllNotes(w http.ResponseWriter, r *http.Request) {
	if err := h.noteService.DeleteAll(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUserNotes returns a user's non-trashed notes, optionally
// narrowed by tag, done state and keyword.
func (h *NoteHandler) ListUserNotes(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerFromQuery(r)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	filter := store.NoteFilter{
		UserID:  userID,
		Keyword: strings.TrimSpace(r.URL.Query().Get("search")),
	}
	if raw := r.URL.Query().Get("tagId"); raw != "" {
		tagID, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid tag id")
			return
		}
		filter.TagID = &tagID
	}
	if raw := r.URL.Query().Get("done"); raw != "" {
		done, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid done value")
			return
		}
		filter.Done = &done
	}

	notes, err := h.noteService.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// SearchNotes matches the keyword against title or content of the
// user's non-trashed notes.
func (h *NoteHandler) SearchNotes(w http.ResponseWriter, r *http.Request) {
	h.searchScoped(w, r, false)
}

func (h *NoteHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerFromQuery(r)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	notes, err := h.noteService.List(r.Context(), store.NoteFilter{UserID: userID, Trashed: true})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) SearchTrash(w http.ResponseWriter, r *http.Request) {
	h.searchScoped(w, r, true)
}

func (h *NoteHandler) searchScoped(w http.ResponseWriter, r *http.Request, trashed bool) {
	userID, err := ownerFromQuery(r)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "search keyword is required")
		return
	}

	filter := store.NoteFilter{
		UserID:  userID,
		Trashed: trashed,
		Keyword: keyword,
	}
	if raw := r.URL.Query().Get("tagId"); raw != "" {
		tagID, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid tag id")
			return
		}
		filter.TagID = &tagID
	}

	notes, err := h.noteService.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseNoteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.noteService.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "note not found")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

type NoteUpdateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Tags    []int   `json:"tags"`
	Done    *bool   `json:"done"`
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseNoteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req NoteUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" {
			writeError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		if utf8.RuneCountInString(trimmed) > types.MaxNoteTitleLength {
			writeError(w, http.StatusBadRequest, "title must be at most 150 characters")
			return
		}
		req.Title = &trimmed
	}

	note, err := h.noteService.Update(r.Context(), id, services.NoteUpdate{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
		Done:    req.Done,
	})
	if err != nil {
		writeDomainError(w, err, "note not found")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseNoteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.noteService.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, "note not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NoteHandler) TrashNote(w http.ResponseWriter, r *http.Request) {
	h.setTrashed(w, r, true)
}

func (h *NoteHandler) RestoreNote(w http.ResponseWriter, r *http.Request) {
	h.setTrashed(w, r, false)
}

func (h *NoteHandler) setTrashed(w http.ResponseWriter, r *http.Request, trashed bool) {
	id, err := parseNoteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var note types.Note
	if trashed {
		note, err = h.noteService.MoveToTrash(r.Context(), id)
	} else {
		note, err = h.noteService.RestoreFromTrash(r.Context(), id)
	}
	if err != nil {
		writeDomainError(w, err, "note not found")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

type ToggleDoneRequest struct {
	Done *bool `json:"done"`
}

// ToggleDone flips the done flag, or sets it when the body supplies an
// explicit value.
func (h *NoteHandler) ToggleDone(w http.ResponseWriter, r *http.Request) {
	id, err := parseNoteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ToggleDoneRequest
	if r.Body != nil {
		// The body is optional; a missing or empty one means flip.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	note, err := h.noteService.ToggleDone(r.Context(), id, req.Done)
	if err != nil {
		writeDomainError(w, err, "note not found")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// ownerFromQuery resolves the acting owner from the userId query
// parameter and the authenticated caller.
func ownerFromQuery(r *http.Request) (int, error) {
	supplied := 0
	if raw := r.URL.Query().Get("userId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return 0, errInvalidOwner
		}
		supplied = id
	}
	return resolveOwner(r, supplied)
}

func parseNoteID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "noteID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid note id")
	}
	return id, nil
}

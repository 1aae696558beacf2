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

const minPasswordLength = 6

// UserHandler provides HTTP handlers for accounts and the OTP
// verification flows.
type UserHandler struct {
	userService *services.UserService
	noteService *services.NoteService
	tagService  *services.TagService
	secret      []byte
}

// NewUserHandler constructs a handler with the provided dependencies.
func NewUserHandler(
	userService *services.UserService,
	noteService *services.NoteService,
	tagService *services.TagService,
	jwtSecret string,
) *UserHandler {
	return &UserHandler{
		userService: userService,
		noteService: noteService,
		tagService:  tagService,
		secret:      []byte(jwtSecret),
	}
}

// UserRouter registers user routes on the given router.
func UserRouter(
	r chi.Router,
	userService *services.UserService,
	noteService *services.NoteService,
	tagService *services.TagService,
	jwtSecret string,
) {
	handler := NewUserHandler(userService, noteService, tagService, jwtSecret)

	r.Post("/register", handler.InitiateRegister)
	r.Post("/verify-register", handler.VerifyRegister)
	r.Post("/resend-otp", handler.ResendOTP)
	r.Post("/login", handler.Login)
	r.Post("/forgot-password", handler.ForgotPassword)
	r.Post("/reset-password", handler.ResetPassword)
	r.Post("/initiate-email-change", handler.InitiateEmailChange)
	r.Post("/verify-email-change", handler.VerifyEmailChange)

	r.Get("/", handler.ListUsers)
	r.Get("/search", handler.SearchUsers)

	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.Put("/", handler.UpdateUser)
		r.Delete("/", handler.DeleteUser)
		r.Patch("/password", handler.ChangePassword)
		r.Patch("/role", handler.UpdateRole)
		r.Get("/stats", handler.UserStats)
	})
}

type RegisterRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// InitiateRegister starts registration: creates an unverified account
// and emails a verification code.
func (h *UserHandler) InitiateRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := h.userService.InitiateRegister(r.Context(), req.Email, strings.TrimSpace(req.Name))
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "user with this email already exists")
			return
		}
		writeDomainError(w, err, "user not found")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type VerifyRegisterRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// VerifyRegister consumes the registration code and completes the
// account.
func (h *UserHandler) VerifyRegister(w http.ResponseWriter, r *http.Request) {
	var req VerifyRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.OTP) == "" {
		writeError(w, http.StatusBadRequest, "email and otp are required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	user, err := h.userService.VerifyRegister(r.Context(), req.Email, strings.TrimSpace(req.OTP), req.Password, strings.TrimSpace(req.Name))
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	token, err := issueToken(user.ID, h.secret, defaultTokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

type EmailRequest struct {
	Email string `json:"email"`
}

// ResendOTP reissues the registration code, replacing the pending one.
func (h *UserHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.userService.ResendOTP(r.Context(), req.Email); err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries a session token and the authenticated user.
type AuthResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

// Login verifies credentials and returns a JWT. An unverified account
// is sent a fresh OTP and receives a verification-required response.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	token, err := issueToken(user.ID, h.secret, defaultTokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// ForgotPassword issues a password-reset code to the account email.
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.userService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password reset code sent"})
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword consumes the reset code and sets a new password.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.OTP) == "" {
		writeError(w, http.StatusBadRequest, "email and otp are required")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	if err := h.userService.ResetPassword(r.Context(), req.Email, strings.TrimSpace(req.OTP), req.NewPassword); err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password reset successfully"})
}

type InitiateEmailChangeRequest struct {
	UserID   int    `json:"userId"`
	NewEmail string `json:"newEmail"`
}

// InitiateEmailChange sends a confirmation code to the address the
// user wants to switch to.
func (h *UserHandler) InitiateEmailChange(w http.ResponseWriter, r *http.Request) {
	var req InitiateEmailChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.NewEmail) == "" {
		writeError(w, http.StatusBadRequest, "newEmail is required")
		return
	}

	userID, err := resolveOwner(r, req.UserID)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	if err := h.userService.InitiateEmailChange(r.Context(), userID, req.NewEmail); err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "verification code sent to new email"})
}

type VerifyEmailChangeRequest struct {
	UserID int    `json:"userId"`
	OTP    string `json:"otp"`
}

// VerifyEmailChange consumes the email-change code and swaps the
// account email.
func (h *UserHandler) VerifyEmailChange(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.OTP) == "" {
		writeError(w, http.StatusBadRequest, "otp is required")
		return
	}

	userID, err := resolveOwner(r, req.UserID)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	user, err := h.userService.VerifyEmailChange(r.Context(), userID, strings.TrimSpace(req.OTP))
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// SearchUsers matches the keyword against email or name.
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "search keyword is required")
		return
	}

	users, err := h.userService.Search(r.Context(), keyword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type UserUpdateRequest struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
	Role  *string `json:"role"`
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UserUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.userService.Update(r.Context(), id, services.UserUpdate{
		Email: req.Email,
		Name:  req.Name,
		Role:  req.Role,
	})
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	adminName := ""
	if caller, ok := CallerFromContext(r.Context()); ok {
		adminName = caller.Name
	}

	if err := h.userService.Delete(r.Context(), id, adminName); err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword replaces the password after checking the current one.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "current password and new password are required")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	if err := h.userService.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated successfully"})
}

type RoleRequest struct {
	Role string `json:"role"`
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Role != types.RoleUser && req.Role != types.RoleAdmin {
		writeError(w, http.StatusBadRequest, "valid role (user or admin) is required")
		return
	}

	user, err := h.userService.UpdateRole(r.Context(), id, req.Role)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UserStatsResponse aggregates a user's content.
type UserStatsResponse struct {
	NoteCount        int          `json:"note_count"`
	TrashedNoteCount int          `json:"trashed_note_count"`
	TagCount         int          `json:"tag_count"`
	Notes            []types.Note `json:"notes"`
	Tags             []types.Tag  `json:"tags"`
}

// UserStats returns note/tag counts plus the user's non-trashed notes
// and all tags.
func (h *UserHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.userService.GetByID(r.Context(), id); err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	total, trashed, err := h.noteService.Counts(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	tagCount, err := h.tagService.Count(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	notes, err := h.noteService.List(r.Context(), store.NoteFilter{UserID: id})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	tags, err := h.tagService.List(r.Context(), store.TagFilter{UserID: id})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, UserStatsResponse{
		NoteCount:        total,
		TrashedNoteCount: trashed,
		TagCount:         tagCount,
		Notes:            notes,
		Tags:             tags,
	})
}

func parseUserID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid user id")
	}
	return id, nil
}

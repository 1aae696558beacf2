package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/notable-app/apiserver/internal/otp"
	"github.com/notable-app/apiserver/internal/services"
	"github.com/notable-app/apiserver/internal/store"
)

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps service and store failures to HTTP responses.
// notFoundMessage customizes the 404 body per resource. Unrecognized
// failures surface their raw message with a 500.
func writeDomainError(w http.ResponseWriter, err error, notFoundMessage string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "email already in use")
	case errors.Is(err, services.ErrInvalidTagReference),
		errors.Is(err, services.ErrAlreadyVerified):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, otp.ErrNoChallenge),
		errors.Is(err, otp.ErrExpired),
		errors.Is(err, otp.ErrMismatch),
		errors.Is(err, services.ErrWrongCredentials),
		errors.Is(err, services.ErrWrongPassword):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrVerificationRequired),
		errors.Is(err, errOwnerMismatch):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, errOwnerRequired),
		errors.Is(err, errInvalidOwner):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

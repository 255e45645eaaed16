package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/inkwell/inkwell-be/internal/services"
	"github.com/inkwell/inkwell-be/internal/uploads"
)

// envelope is the uniform JSON response body. Every endpoint answers with
// a "status" of "success" or "error" plus optional payload fields.
type envelope map[string]interface{}

func respond(w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response body")
	}
}

func respondSuccess(w http.ResponseWriter, code int, body envelope) {
	if body == nil {
		body = envelope{}
	}
	body["status"] = "success"
	respond(w, code, body)
}

func respondError(w http.ResponseWriter, code int, message string) {
	respond(w, code, envelope{"status": "error", "message": message})
}

// respondServiceError maps service-layer errors onto HTTP statuses.
// Anything unrecognized is a storage failure and answers with a generic
// message so raw database or filesystem errors never reach the client.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrMissingFields),
		errors.Is(err, uploads.ErrBadType),
		errors.Is(err, uploads.ErrTooLarge):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrSessionNotFound):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrNotOwner):
		respondError(w, http.StatusForbidden, "Unauthorized to modify this blog.")
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrBlogNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrDuplicateEmail),
		errors.Is(err, services.ErrDuplicateUsername):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// RespondUnauthorized is the session middleware's rejection handler.
func RespondUnauthorized(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusUnauthorized, "Unauthorized. Please log in.")
}

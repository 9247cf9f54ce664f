// Package handler contains the HTTP handlers of the REST API. Handlers
// decode and validate payloads, call usecases, and translate domain errors
// into HTTP statuses; they never touch a datastore directly.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/creatorhub/creator-hub-api/internal/usecase"
)

// ErrorResponse is the error body shape shared by every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondErrorMessage(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// respondError classifies a usecase error into an HTTP status. Unknown errors
// are logged and surfaced as an opaque 500.
func respondError(w http.ResponseWriter, logger *zerolog.Logger, err error) {
	switch {
	case errors.Is(err, usecase.ErrUserNotFound):
		respondErrorMessage(w, http.StatusNotFound, "not_found", "user not found")
	case errors.Is(err, usecase.ErrUserAlreadyExists):
		respondErrorMessage(w, http.StatusConflict, "conflict", "user already exists")
	case errors.Is(err, usecase.ErrNoFieldsProvided):
		respondErrorMessage(w, http.StatusBadRequest, "no_fields_provided", "no updatable fields were supplied")
	case errors.Is(err, usecase.ErrProviderConflict):
		respondErrorMessage(w, http.StatusConflict, "conflict", "provider is already linked to another account")
	case errors.Is(err, usecase.ErrWalletConflict):
		respondErrorMessage(w, http.StatusConflict, "conflict", "wallet link conflicts with an existing wallet")
	case errors.Is(err, usecase.ErrEmailAlreadyInUse):
		respondErrorMessage(w, http.StatusConflict, "conflict", "email is already in use")
	case errors.Is(err, usecase.ErrInvalidCredentials):
		respondErrorMessage(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, usecase.ErrInvalidIDToken):
		respondErrorMessage(w, http.StatusUnauthorized, "invalid_id_token", "identity token could not be verified")
	case errors.Is(err, usecase.ErrSessionNotFound):
		respondErrorMessage(w, http.StatusUnauthorized, "session_not_found", "session not found")
	case errors.Is(err, usecase.ErrTokenNotFound):
		respondErrorMessage(w, http.StatusNotFound, "token_not_found", "password reset token not found")
	case errors.Is(err, usecase.ErrTokenAlreadyUsed):
		respondErrorMessage(w, http.StatusGone, "token_used", "password reset token has already been used")
	case errors.Is(err, usecase.ErrTokenExpired):
		respondErrorMessage(w, http.StatusGone, "token_expired", "password reset token has expired")
	case errors.Is(err, usecase.ErrInvalidToken):
		respondErrorMessage(w, http.StatusUnauthorized, "invalid_token", "invalid password reset token")
	default:
		logger.Error().Err(err).Msg("unhandled error")
		respondErrorMessage(w, http.StatusInternalServerError, "internal", "something went wrong")
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zatekoja/slotbook/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/slotbook/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps err to its status code and user-facing message
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	message := apperrors.MessageOf(err)
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("Request failed")
		if apperrors.TypeOf(err) == apperrors.ErrorTypeInternal {
			message = "internal server error"
		}
	}
	respondWithError(w, status, message)
}

func decodeJSON(r *http.Request, out interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return apperrors.NewValidationError("invalid request payload")
	}
	return nil
}

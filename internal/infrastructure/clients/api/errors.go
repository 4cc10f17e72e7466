package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/zatekoja/slotbook/pkg/errors"
)

// normalizeError turns a non-2xx response into an AppError whose message is
// what the backend said, or a generic fallback
func normalizeError(statusCode int, body []byte) *apperrors.AppError {
	return apperrors.FromStatus(statusCode, errorMessage(statusCode, body))
}

func errorMessage(statusCode int, body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := rawMessage(payload.Message); msg != "" {
			return msg
		}
		if msg := rawMessage(payload.Error); msg != "" {
			return msg
		}
	}
	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return fmt.Sprintf("Request failed with status code %d", statusCode)
}

// rawMessage accepts a string or a list of strings
func rawMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single)
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return strings.TrimSpace(strings.Join(many, "; "))
	}
	return ""
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/session"
)

// SessionClient logs the BFF in and out of the marketplace backend
type SessionClient interface {
	Login(ctx context.Context, creds entities.Credentials) (*entities.LoginResult, error)
	Logout(ctx context.Context) error
}

// SessionHandler handles session requests
type SessionHandler struct {
	client  SessionClient
	session *session.Session
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(client SessionClient, sess *session.Session) *SessionHandler {
	return &SessionHandler{client: client, session: sess}
}

type sessionResponse struct {
	Authenticated bool           `json:"authenticated"`
	User          *entities.User `json:"user,omitempty"`
	ExpiresAt     *time.Time     `json:"expiresAt,omitempty"`
}

func (h *SessionHandler) status(user *entities.User) sessionResponse {
	resp := sessionResponse{Authenticated: h.session.Authenticated(), User: user}
	if resp.User == nil {
		resp.User = h.session.User()
	}
	if expiresAt, ok := h.session.ExpiresAt(); ok {
		resp.ExpiresAt = &expiresAt
	}
	return resp
}

// Login handles POST /api/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds entities.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.client.Login(r.Context(), creds)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	resp := h.status(result.User)
	resp.Authenticated = true
	respondWithJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Logout(r.Context()); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Status handles GET /api/session
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.status(nil))
}

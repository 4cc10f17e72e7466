// Package session holds the process-wide authentication state. A Session is
// built once at startup, hydrated from its store, injected into the API client,
// and cleared on logout or when a refresh cannot recover it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/domain/providers"
)

// Session owns the access/refresh tokens and the signed-in user
type Session struct {
	mu     sync.RWMutex
	tokens entities.Tokens
	user   *entities.User
	store  providers.SessionStore
}

// New creates an empty session persisted through store. A nil store keeps the
// session in memory only.
func New(store providers.SessionStore) *Session {
	return &Session{store: store}
}

// Hydrate loads a previously persisted session, if any
func (s *Session) Hydrate(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	state, err := s.store.Load(ctx)
	if errors.Is(err, providers.ErrNoSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to hydrate session: %w", err)
	}

	s.mu.Lock()
	s.tokens = state.Tokens
	s.user = state.User
	s.mu.Unlock()
	return nil
}

// Establish replaces the session after a login. Without a user in the login
// response the user is read from the access token's claims.
func (s *Session) Establish(ctx context.Context, tokens entities.Tokens, user *entities.User) error {
	if user == nil {
		if claims, err := ParseClaims(tokens.AccessToken); err == nil {
			user = claims.User()
		}
	}

	s.mu.Lock()
	s.tokens = tokens
	s.user = user
	state := s.stateLocked()
	s.mu.Unlock()

	return s.persist(ctx, state)
}

// Rotate stores a refreshed access token. The refresh token is only replaced
// when the backend issued a new one.
func (s *Session) Rotate(ctx context.Context, accessToken, refreshToken string) error {
	s.mu.Lock()
	s.tokens.AccessToken = accessToken
	if refreshToken != "" {
		s.tokens.RefreshToken = refreshToken
	}
	state := s.stateLocked()
	s.mu.Unlock()

	return s.persist(ctx, state)
}

// Clear drops tokens and user locally and in the store. It reports whether
// there was anything to clear; clearing an empty session touches nothing.
func (s *Session) Clear(ctx context.Context) (bool, error) {
	s.mu.Lock()
	hadState := s.tokens != (entities.Tokens{}) || s.user != nil
	s.tokens = entities.Tokens{}
	s.user = nil
	s.mu.Unlock()

	if s.store == nil || !hadState {
		return hadState, nil
	}
	if err := s.store.Clear(ctx); err != nil {
		return hadState, fmt.Errorf("failed to clear persisted session: %w", err)
	}
	return hadState, nil
}

// Tokens returns a copy of the current tokens
func (s *Session) Tokens() entities.Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// AccessToken returns the current bearer token, empty when signed out
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken
}

// User returns the signed-in user, nil when unknown
func (s *Session) User() *entities.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// ExpiresAt returns when the current access token expires. ok is false for
// opaque tokens and tokens without an exp claim.
func (s *Session) ExpiresAt() (expiresAt time.Time, ok bool) {
	claims, err := ParseClaims(s.AccessToken())
	if err != nil {
		return time.Time{}, false
	}
	expiresAt = claims.ExpiresAt()
	return expiresAt, !expiresAt.IsZero()
}

// Authenticated reports whether an access token is held
func (s *Session) Authenticated() bool {
	return s.AccessToken() != ""
}

func (s *Session) stateLocked() *providers.SessionState {
	state := &providers.SessionState{Tokens: s.tokens}
	if s.user != nil {
		u := *s.user
		state.User = &u
	}
	return state
}

func (s *Session) persist(ctx context.Context, state *providers.SessionState) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/zatekoja/slotbook/internal/domain/entities"
)

// TokenClaims are the fields read from an access token. The signature is not
// verified here; the backend verifies it on every call.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`
}

// ParseClaims decodes the payload of a JWT access token
func ParseClaims(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return claims, nil
}

// User builds the account the token was issued to, nil when it names nobody
func (c *TokenClaims) User() *entities.User {
	id := c.UserID
	if id == "" {
		id = c.Subject
	}
	if id == "" {
		return nil
	}
	return &entities.User{ID: id, Email: c.Email, Name: c.Name, Role: c.Role}
}

// ExpiresAt returns the exp claim, zero when absent
func (c *TokenClaims) ExpiresAt() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

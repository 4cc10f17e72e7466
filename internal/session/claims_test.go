package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/session"
)

func signedToken(t *testing.T, claims session.TokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestParseClaims(t *testing.T) {
	exp := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	token := signedToken(t, session.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-9", ExpiresAt: jwt.NewNumericDate(exp)},
		Email:            "pat@example.com",
		Role:             "CLIENT",
	})

	claims, err := session.ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, exp, claims.ExpiresAt().UTC())
	assert.Equal(t, &entities.User{ID: "user-9", Email: "pat@example.com", Role: "CLIENT"}, claims.User())

	_, err = session.ParseClaims("opaque-token")
	assert.Error(t, err)
}

func TestSession_EstablishReadsUserFromToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, session.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		UserID:           "user-3",
	})

	s := session.New(nil)
	require.NoError(t, s.Establish(context.Background(), entities.Tokens{AccessToken: token}, nil))

	require.NotNil(t, s.User())
	assert.Equal(t, "user-3", s.User().ID)
	expiresAt, ok := s.ExpiresAt()
	assert.True(t, ok)
	assert.True(t, exp.Equal(expiresAt))
}

func TestSession_ExplicitUserWins(t *testing.T) {
	token := signedToken(t, session.TokenClaims{UserID: "from-token"})

	s := session.New(nil)
	require.NoError(t, s.Establish(context.Background(), entities.Tokens{AccessToken: token}, &entities.User{ID: "from-login"}))
	assert.Equal(t, "from-login", s.User().ID)

	_, ok := s.ExpiresAt()
	assert.False(t, ok)
}

package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/slotbook/internal/api/handlers"
	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/session"
	apperrors "github.com/zatekoja/slotbook/pkg/errors"
)

type MockSessionClient struct {
	mock.Mock
}

func (m *MockSessionClient) Login(ctx context.Context, creds entities.Credentials) (*entities.LoginResult, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LoginResult), args.Error(1)
}

func (m *MockSessionClient) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestSessionHandler(t *testing.T) {
	t.Run("login never echoes tokens", func(t *testing.T) {
		client := new(MockSessionClient)
		handler := handlers.NewSessionHandler(client, session.New(nil))
		client.On("Login", mock.Anything, entities.Credentials{Email: "pro@example.com", Password: "secret"}).
			Return(&entities.LoginResult{Tokens: entities.Tokens{AccessToken: "a1", RefreshToken: "r1"}, User: &entities.User{ID: "u1"}}, nil)

		w := httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest("POST", "/api/session/login", bytes.NewBufferString(`{"email":"pro@example.com","password":"secret"}`)))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"authenticated":true`)
		assert.NotContains(t, w.Body.String(), "a1")
	})

	t.Run("bad credentials", func(t *testing.T) {
		client := new(MockSessionClient)
		handler := handlers.NewSessionHandler(client, session.New(nil))
		client.On("Login", mock.Anything, mock.Anything).Return(nil, apperrors.FromStatus(http.StatusUnauthorized, "Invalid credentials"))

		w := httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest("POST", "/api/session/login", bytes.NewBufferString(`{"email":"a@b.c","password":"x"}`)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid credentials")
	})

	t.Run("logout", func(t *testing.T) {
		client := new(MockSessionClient)
		handler := handlers.NewSessionHandler(client, session.New(nil))
		client.On("Logout", mock.Anything).Return(nil)

		w := httptest.NewRecorder()
		handler.Logout(w, httptest.NewRequest("POST", "/api/session/logout", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("status", func(t *testing.T) {
		handler := handlers.NewSessionHandler(new(MockSessionClient), signedInSession(t))

		w := httptest.NewRecorder()
		handler.Status(w, httptest.NewRequest("GET", "/api/session", nil))
		assert.Contains(t, w.Body.String(), `"id":"user-1"`)
	})
}

package providers

import (
	"context"
	"errors"

	"github.com/zatekoja/slotbook/internal/domain/entities"
)

// ErrNoSession is returned by SessionStore.Load when nothing is persisted
var ErrNoSession = errors.New("no persisted session")

// SessionState is what survives a process restart
type SessionState struct {
	Tokens entities.Tokens `json:"tokens"`
	User   *entities.User  `json:"user,omitempty"`
}

// SessionStore persists the session between runs
type SessionStore interface {
	Load(ctx context.Context) (*SessionState, error)
	Save(ctx context.Context, state *SessionState) error
	Clear(ctx context.Context) error
}

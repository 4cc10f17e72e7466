package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/zatekoja/slotbook/internal/domain/providers"
	redisclient "github.com/zatekoja/slotbook/internal/infrastructure/clients/redis"
)

// RedisStore persists the session under a single Redis key so replicas share it
type RedisStore struct {
	client *redisclient.Client
	key    string
}

// NewRedisStore creates a store using key
func NewRedisStore(client *redisclient.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Load reads the persisted session
func (s *RedisStore) Load(ctx context.Context) (*providers.SessionState, error) {
	raw, err := s.client.Client().Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, providers.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var state providers.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &state, nil
}

// Save stores state without expiry; the refresh token's lifetime is enforced upstream
func (s *RedisStore) Save(ctx context.Context, state *providers.SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Client().Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear deletes the session key
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Client().Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

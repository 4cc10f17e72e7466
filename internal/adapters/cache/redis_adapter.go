package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zatekoja/slotbook/internal/domain/providers"
	redisclient "github.com/zatekoja/slotbook/internal/infrastructure/clients/redis"
)

// RedisAdapter implements ResponseCache on Redis so cached responses survive restarts
type RedisAdapter struct {
	client    *redisclient.Client
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// NewRedisAdapter creates a Redis response cache. Entries expire in Redis after
// retention regardless of the max age a reader asks for.
func NewRedisAdapter(client *redisclient.Client, prefix string, retention time.Duration) *RedisAdapter {
	return &RedisAdapter{
		client:    client,
		prefix:    prefix,
		retention: retention,
		now:       time.Now,
	}
}

// Get retrieves an entry younger than maxAge
func (a *RedisAdapter) Get(ctx context.Context, key string, maxAge time.Duration) (providers.CachedResponse, bool, error) {
	raw, err := a.client.Client().Get(ctx, a.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return providers.CachedResponse{}, false, nil
	}
	if err != nil {
		return providers.CachedResponse{}, false, fmt.Errorf("failed to get from cache: %w", err)
	}

	var entry providers.CachedResponse
	if err := json.Unmarshal(raw, &entry); err != nil {
		return providers.CachedResponse{}, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if a.now().Sub(entry.StoredAt) >= maxAge {
		return providers.CachedResponse{}, false, nil
	}
	return entry, true, nil
}

// Set stores body stamped with the current time
func (a *RedisAdapter) Set(ctx context.Context, key string, body []byte) error {
	raw, err := json.Marshal(providers.CachedResponse{Body: body, StoredAt: a.now()})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := a.client.Client().Set(ctx, a.prefix+key, raw, a.retention).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Delete removes a value from cache
func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.client.Client().Del(ctx, a.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

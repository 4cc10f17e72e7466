// Package redis wraps the go-redis client shared by the session store, the
// response cache and the event bus.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zatekoja/slotbook/internal/infrastructure/observability"
	"github.com/zatekoja/slotbook/pkg/config"
	"github.com/zatekoja/slotbook/pkg/retry"
)

// Client is a connected Redis client whose commands are traced
type Client struct {
	client *redis.Client
}

// NewClient dials Redis and waits until it answers PING, backing off between
// attempts until ctx ends
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	rdb.AddHook(commandTracer{})

	policy := retry.DefaultConfig("Redis")
	policy.OnRetry = func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Redis connection attempt failed")
	}
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: rdb}, nil
}

// Client returns the underlying go-redis client
func (c *Client) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// commandTracer opens a client span per command or pipeline. A redis.Nil
// reply is a cache miss, not an error.
type commandTracer struct{}

func (commandTracer) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (commandTracer) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := observability.StartSpan(ctx, "redis "+cmd.Name(), trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()

		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RecordError(span, err)
		}
		return err
	}
}

func (commandTracer) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := observability.StartSpan(ctx, "redis pipeline", trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()
		observability.SetSpanAttributes(span, attribute.Int("redis.commands", len(cmds)))

		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RecordError(span, err)
		}
		return err
	}
}

//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/zatekoja/slotbook/internal/adapters/cache"
	sessionstore "github.com/zatekoja/slotbook/internal/adapters/session"
	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/domain/providers"
	"github.com/zatekoja/slotbook/internal/infrastructure/clients/redis"
	"github.com/zatekoja/slotbook/internal/session"
)

type RedisAdaptersIntegrationTestSuite struct {
	suite.Suite
	client *redis.Client
	prefix string
}

func (suite *RedisAdaptersIntegrationTestSuite) SetupSuite() {
	suite.client = requireRedis(suite.T())
	suite.prefix = "slotbook:test:" + uuid.NewString() + ":"
}

func (suite *RedisAdaptersIntegrationTestSuite) TearDownSuite() {
	if suite.client == nil {
		return
	}
	ctx := context.Background()
	keys, err := suite.client.Client().Keys(ctx, suite.prefix+"*").Result()
	if err == nil && len(keys) > 0 {
		suite.client.Client().Del(ctx, keys...)
	}
}

func (suite *RedisAdaptersIntegrationTestSuite) TestResponseCacheRoundTrip() {
	ctx := context.Background()
	adapter := cache.NewRedisAdapter(suite.client, suite.prefix+"response:", time.Minute)

	suite.Require().NoError(adapter.Set(ctx, "/categories?", []byte(`{"data":[]}`)))

	entry, ok, err := adapter.Get(ctx, "/categories?", time.Hour)
	suite.Require().NoError(err)
	suite.True(ok)
	suite.JSONEq(`{"data":[]}`, string(entry.Body))
	suite.WithinDuration(time.Now(), entry.StoredAt, 5*time.Second)

	_, ok, err = adapter.Get(ctx, "/categories?", time.Nanosecond)
	suite.Require().NoError(err)
	suite.False(ok, "older than max age")

	suite.Require().NoError(adapter.Delete(ctx, "/categories?"))
	_, ok, err = adapter.Get(ctx, "/categories?", time.Hour)
	suite.Require().NoError(err)
	suite.False(ok)
}

func (suite *RedisAdaptersIntegrationTestSuite) TestResponseCacheRetention() {
	ctx := context.Background()
	adapter := cache.NewRedisAdapter(suite.client, suite.prefix+"response:", time.Minute)
	suite.Require().NoError(adapter.Set(ctx, "/appointments?page=1", []byte(`{}`)))

	ttl, err := suite.client.Client().TTL(ctx, suite.prefix+"response:/appointments?page=1").Result()
	suite.Require().NoError(err)
	suite.Greater(ttl, 50*time.Second)
	suite.LessOrEqual(ttl, time.Minute)
}

func (suite *RedisAdaptersIntegrationTestSuite) TestSessionSurvivesRestart() {
	ctx := context.Background()
	store := sessionstore.NewRedisStore(suite.client, suite.prefix+"session")

	_, err := store.Load(ctx)
	suite.ErrorIs(err, providers.ErrNoSession)

	first := session.New(store)
	suite.Require().NoError(first.Establish(ctx, entities.Tokens{AccessToken: "a1", RefreshToken: "r1"}, &entities.User{ID: "u1"}))
	suite.Require().NoError(first.Rotate(ctx, "a2", ""))

	second := session.New(store)
	suite.Require().NoError(second.Hydrate(ctx))
	suite.Equal("a2", second.AccessToken())
	suite.Equal("r1", second.Tokens().RefreshToken)
	suite.Equal("u1", second.User().ID)

	cleared, err := second.Clear(ctx)
	suite.Require().NoError(err)
	suite.True(cleared)
	_, err = store.Load(ctx)
	suite.ErrorIs(err, providers.ErrNoSession)
}

func TestRedisAdaptersIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(RedisAdaptersIntegrationTestSuite))
}

//go:build integration

package integration

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/zatekoja/slotbook/internal/infrastructure/clients/redis"
	"github.com/zatekoja/slotbook/pkg/config"
)

// requireRedis connects to TEST_REDIS_ADDR (default localhost:6379) and skips
// the test when nothing answers. The client is closed during cleanup.
func requireRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	host, rawPort, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("invalid TEST_REDIS_ADDR %q: %v", addr, err)
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		t.Fatalf("invalid TEST_REDIS_ADDR port %q: %v", rawPort, err)
	}
	db, _ := strconv.Atoi(os.Getenv("TEST_REDIS_DB"))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, &config.RedisConfig{
		Host:     host,
		Port:     port,
		Password: os.Getenv("TEST_REDIS_PASSWORD"),
		DB:       db,
	})
	if err != nil {
		t.Skipf("Redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

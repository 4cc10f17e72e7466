package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zatekoja/slotbook/internal/domain/providers"
)

// MemoryAdapter is a bounded in-process ResponseCache
type MemoryAdapter struct {
	entries *lru.Cache[string, providers.CachedResponse]
	now     func() time.Time
}

// NewMemoryAdapter creates an LRU response cache holding at most size entries
func NewMemoryAdapter(size int) (*MemoryAdapter, error) {
	entries, err := lru.New[string, providers.CachedResponse](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &MemoryAdapter{entries: entries, now: time.Now}, nil
}

// Get returns the entry for key if it is younger than maxAge
func (a *MemoryAdapter) Get(_ context.Context, key string, maxAge time.Duration) (providers.CachedResponse, bool, error) {
	entry, ok := a.entries.Get(key)
	if !ok {
		return providers.CachedResponse{}, false, nil
	}
	if a.now().Sub(entry.StoredAt) >= maxAge {
		a.entries.Remove(key)
		return providers.CachedResponse{}, false, nil
	}
	return entry, true, nil
}

// Set stores a copy of body
func (a *MemoryAdapter) Set(_ context.Context, key string, body []byte) error {
	stored := make([]byte, len(body))
	copy(stored, body)
	a.entries.Add(key, providers.CachedResponse{Body: stored, StoredAt: a.now()})
	return nil
}

// Delete removes key
func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.entries.Remove(key)
	return nil
}

// Len reports how many entries are held
func (a *MemoryAdapter) Len() int {
	return a.entries.Len()
}

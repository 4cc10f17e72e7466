package providers

import (
	"context"
	"time"
)

// CachedResponse is a response body mirrored from a successful GET
type CachedResponse struct {
	Body     []byte    `json:"body"`
	StoredAt time.Time `json:"storedAt"`
}

// ResponseCache stores GET response bodies for use when the network fails
type ResponseCache interface {
	// Get returns the entry for key if it is younger than maxAge.
	// A missing or too-old entry reports ok=false without an error.
	Get(ctx context.Context, key string, maxAge time.Duration) (entry CachedResponse, ok bool, err error)

	// Set stores body under key, stamped with the current time
	Set(ctx context.Context, key string, body []byte) error

	// Delete removes key
	Delete(ctx context.Context, key string) error
}

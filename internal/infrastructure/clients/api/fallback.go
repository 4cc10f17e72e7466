package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/zatekoja/slotbook/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/slotbook/pkg/errors"
)

// cacheKey identifies a GET by path and its sorted query string
func cacheKey(req *Request) string {
	return req.Path + "?" + req.Query.Encode()
}

func (c *Client) cacheable(req *Request) bool {
	if c.cache == nil || req.Method != http.MethodGet {
		return false
	}
	for _, pattern := range c.cachePatterns {
		if pattern.MatchString(req.Path) {
			return true
		}
	}
	return false
}

// mirror stores a successful allow-listed GET for later fallback
func (c *Client) mirror(ctx context.Context, req *Request, resp *Response) {
	if resp.FromCache || !c.cacheable(req) {
		return
	}
	if err := c.cache.Set(ctx, cacheKey(req), resp.Body); err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).Str("path", req.Path).Msg("Failed to mirror response into cache")
	}
}

// recoverFromNetwork answers a failed exchange from the cache when allowed,
// otherwise returns the normalized transport error
func (c *Client) recoverFromNetwork(ctx context.Context, req *Request, err error) (*Response, error) {
	if !isNetworkError(err) {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("request could not be sent", err)
	}
	netErr := toNetworkError(err)
	if !c.cacheable(req) {
		return nil, netErr
	}

	logger := observability.LoggerFromContext(ctx)
	entry, ok, cacheErr := c.cache.Get(context.WithoutCancel(ctx), cacheKey(req), c.cacheMaxAge)
	if cacheErr != nil {
		logger.Warn().Err(cacheErr).Str("path", req.Path).Msg("Response cache lookup failed")
	}
	if !ok {
		observability.RecordCacheFallback(ctx, c.metrics, "miss")
		return nil, netErr
	}

	observability.RecordCacheFallback(ctx, c.metrics, "hit")
	logger.Info().
		Str("path", req.Path).
		Time("cached_at", entry.StoredAt).
		Msg("Serving cached response after network failure")

	return &Response{
		StatusCode: http.StatusOK,
		Body:       tagFromCache(entry.Body, entry.StoredAt),
		FromCache:  true,
		CachedAt:   entry.StoredAt,
	}, nil
}

// tagFromCache adds "_fromCache" and "_cachedAt" to a JSON object body.
// Other bodies are returned unchanged; Response.FromCache still marks them.
func tagFromCache(body []byte, cachedAt time.Time) []byte {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(body, &object); err != nil || object == nil {
		return body
	}
	object["_fromCache"] = json.RawMessage("true")
	stamp, _ := json.Marshal(cachedAt.UTC().Format(time.RFC3339Nano))
	object["_cachedAt"] = stamp

	tagged, err := json.Marshal(object)
	if err != nil {
		return body
	}
	return tagged
}

// isNetworkError reports transport-level failures: refused, reset or aborted
// connections, timeouts, truncated responses, and other dial errors.
// Caller cancellation is not one.
func isNetworkError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func toNetworkError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewNetworkError("Request timed out", err)
	}
	return apperrors.NewNetworkError("Network Error", err)
}

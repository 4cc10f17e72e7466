// Package api is the authenticated client for the marketplace REST backend.
//
// Every request carries the session's bearer token. A 401 triggers a single
// token refresh; requests that fail with 401 while the refresh is in flight
// wait in a FIFO queue and are replayed with the new token once it lands.
// GETs on a fixed allow-list are mirrored into a ResponseCache and served
// from it when the network fails.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/zatekoja/slotbook/internal/domain/providers"
	"github.com/zatekoja/slotbook/internal/infrastructure/observability"
	"github.com/zatekoja/slotbook/internal/session"
)

const (
	loginPath   = "/auth/login"
	refreshPath = "/auth/refresh"
	logoutPath  = "/auth/logout"

	// DefaultTimeout bounds every HTTP call
	DefaultTimeout = 25 * time.Second
	// DefaultCacheMaxAge is the oldest cached GET served after a network failure
	DefaultCacheMaxAge = time.Hour
)

// DefaultCachePatterns are the GET endpoints mirrored into the response cache
var DefaultCachePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^/appointments(/.*)?$`),
	regexp.MustCompile(`^/categories(/.*)?$`),
	regexp.MustCompile(`^/professionals/[^/]+/(dashboard|popular-services|stats)$`),
}

// Request describes one API call. Path is relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	Header http.Header

	// retried is set before a refresh so a second 401 is not recovered again
	retried bool
	// bearer forces the Authorization header on replays
	bearer string
	// anonymous requests never carry the session token
	anonymous bool
}

// Response is a successful API answer
type Response struct {
	StatusCode int
	Body       []byte
	FromCache  bool
	CachedAt   time.Time
}

// Decode unmarshals the body into out
func (r *Response) Decode(out interface{}) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithResponseCache enables the read-through fallback cache
func WithResponseCache(cache providers.ResponseCache, maxAge time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheMaxAge = maxAge
	}
}

// WithCachePatterns replaces the allow-list of cacheable GET paths
func WithCachePatterns(patterns ...*regexp.Regexp) Option {
	return func(c *Client) { c.cachePatterns = patterns }
}

// WithMetrics records upstream, refresh and fallback metrics
func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *Client) { c.metrics = metrics }
}

// WithRateLimit throttles outbound requests to rps per second with the given
// burst. Waiting past the caller's deadline fails like a timeout.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithSessionExpired registers the hook run once a refresh fails and the
// session has been cleared. It receives the login entry point.
func WithSessionExpired(loginPath string, hook func(loginPath string)) Option {
	return func(c *Client) {
		c.loginPath = loginPath
		c.onSessionExpired = hook
	}
}

// Client is the authenticated marketplace API client
type Client struct {
	baseURL          string
	httpClient       *http.Client
	session          *session.Session
	cache            providers.ResponseCache
	cacheMaxAge      time.Duration
	cachePatterns    []*regexp.Regexp
	metrics          *observability.Metrics
	limiter          *rate.Limiter
	loginPath        string
	onSessionExpired func(loginPath string)
	refresher        *refresher
}

// NewClient creates a client for baseURL authenticating with sess
func NewClient(baseURL string, timeout time.Duration, sess *session.Session, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: timeout},
		session:       sess,
		cacheMaxAge:   DefaultCacheMaxAge,
		cachePatterns: DefaultCachePatterns,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.refresher = &refresher{client: c}
	return c
}

// Session returns the session the client authenticates with
func (c *Client) Session() *session.Session {
	return c.session
}

// Do sends req and returns the successful response. Failures are
// *apperrors.AppError values carrying a user-facing message.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := observability.StartSpan(ctx, "api "+req.Method+" "+req.Path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	resp, sentWith, err := c.roundTrip(ctx, req)
	if err != nil {
		observability.RecordError(span, err)
		return c.recoverFromNetwork(ctx, req, err)
	}
	observability.SetSpanAttributes(span, attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized && c.refreshable(req) {
		req.retried = true
		return c.refresher.recover(ctx, req, sentWith)
	}
	return c.complete(ctx, req, resp)
}

// replay resends a request after a token refresh; a second 401 is final
func (c *Client) replay(ctx context.Context, req *Request, token string) (*Response, error) {
	req.bearer = token
	resp, _, err := c.roundTrip(ctx, req)
	if err != nil {
		return c.recoverFromNetwork(ctx, req, err)
	}
	return c.complete(ctx, req, resp)
}

func (c *Client) refreshable(req *Request) bool {
	return c.session != nil && !req.retried && !req.anonymous && req.Path != refreshPath && req.Path != loginPath
}

func (c *Client) complete(ctx context.Context, req *Request, resp *Response) (*Response, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, normalizeError(resp.StatusCode, resp.Body)
	}
	c.mirror(ctx, req, resp)
	return resp, nil
}

// roundTrip performs the HTTP exchange and returns the token it was sent with
func (c *Client) roundTrip(ctx context.Context, req *Request) (*Response, string, error) {
	endpoint := c.baseURL + req.Path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, body)
	if err != nil {
		return nil, "", err
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("X-Request-ID") == "" {
		httpReq.Header.Set("X-Request-ID", uuid.NewString())
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	var token string
	switch {
	case req.anonymous:
	case req.bearer != "":
		token = req.bearer
		httpReq.Header.Set("Authorization", "Bearer "+token)
	case httpReq.Header.Get("Authorization") == "" && c.session != nil:
		if token = c.session.AccessToken(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, token, ctx.Err()
			}
			return nil, token, fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.RecordUpstreamMetric(ctx, c.metrics, req.Method, 0, time.Since(start))
		return nil, token, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, token, err
	}
	observability.RecordUpstreamMetric(ctx, c.metrics, req.Method, httpResp.StatusCode, time.Since(start))

	return &Response{StatusCode: httpResp.StatusCode, Body: raw}, token, nil
}

// expireSession clears the session and notifies the login hook
func (c *Client) expireSession(ctx context.Context) {
	logger := observability.LoggerFromContext(ctx)
	if c.session == nil {
		return
	}
	cleared, err := c.session.Clear(context.WithoutCancel(ctx))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to clear session after refresh failure")
	}
	if !cleared {
		return
	}
	logger.Warn().Str("login_path", c.loginPath).Msg("Session expired; login required")
	if c.onSessionExpired != nil {
		c.onSessionExpired(c.loginPath)
	}
}

package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/slotbook/pkg/errors"
)

// refresher serializes token refreshes. While refreshing is true every other
// request that hits a 401 is parked in queue and replayed, in arrival order,
// by the goroutine that performed the refresh.
type refresher struct {
	client *Client

	mu         sync.Mutex
	refreshing bool
	queue      []*waiter
}

type waiter struct {
	ctx  context.Context
	req  *Request
	done chan result
}

type result struct {
	resp *Response
	err  error
}

// recover handles a 401 for req, which was sent with token sentWith
func (r *refresher) recover(ctx context.Context, req *Request, sentWith string) (*Response, error) {
	r.mu.Lock()
	if !r.refreshing {
		// The session rotated after this request left; retry without a new refresh.
		if current := r.client.session.AccessToken(); current != "" && current != sentWith {
			r.mu.Unlock()
			return r.client.replay(ctx, req, current)
		}
	}

	if r.refreshing {
		w := &waiter{ctx: ctx, req: req, done: make(chan result, 1)}
		r.queue = append(r.queue, w)
		r.mu.Unlock()

		select {
		case res := <-w.done:
			return res.resp, res.err
		case <-ctx.Done():
			r.abandon(w)
			return nil, ctx.Err()
		}
	}

	r.refreshing = true
	r.mu.Unlock()

	token, err := r.client.refreshTokens(context.WithoutCancel(ctx))

	r.mu.Lock()
	queue := r.queue
	r.queue = nil
	r.refreshing = false
	r.mu.Unlock()

	if err != nil {
		observability.RecordTokenRefresh(ctx, r.client.metrics, "failure")
		for _, w := range queue {
			w.done <- result{err: err}
		}
		r.client.expireSession(ctx)
		return nil, err
	}

	observability.RecordTokenRefresh(ctx, r.client.metrics, "success")
	resp, replayErr := r.client.replay(ctx, req, token)
	if len(queue) > 0 {
		go r.drain(queue, token)
	}
	return resp, replayErr
}

// drain replays parked requests one at a time in FIFO order
func (r *refresher) drain(queue []*waiter, token string) {
	for _, w := range queue {
		if err := w.ctx.Err(); err != nil {
			w.done <- result{err: err}
			continue
		}
		resp, err := r.client.replay(w.ctx, w.req, token)
		w.done <- result{resp: resp, err: err}
	}
}

// abandon removes a waiter whose caller stopped waiting
func (r *refresher) abandon(target *waiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, w := range r.queue {
		if w == target {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			return
		}
	}
}

// refreshTokens exchanges the refresh token for a new access token and
// stores it in the session
func (c *Client) refreshTokens(ctx context.Context) (string, error) {
	refreshToken := c.session.Tokens().RefreshToken
	if refreshToken == "" {
		return "", apperrors.NewUnauthorizedError("no refresh token available")
	}

	resp, _, err := c.roundTrip(ctx, &Request{
		Method:    http.MethodPost,
		Path:      refreshPath,
		Body:      map[string]string{"refreshToken": refreshToken},
		anonymous: true,
		retried:   true,
	})
	if err != nil {
		return "", &apperrors.AppError{
			Type:    apperrors.ErrorTypeUnauthorized,
			Message: "session refresh failed",
			Err:     toNetworkError(err),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &apperrors.AppError{
			Type:       apperrors.ErrorTypeUnauthorized,
			Message:    "session refresh failed",
			StatusCode: resp.StatusCode,
			Err:        normalizeError(resp.StatusCode, resp.Body),
		}
	}

	var tokens entities.Tokens
	if err := decodeOne(resp, &tokens); err != nil {
		return "", apperrors.NewUnauthorizedError("session refresh returned an unreadable body")
	}
	if tokens.AccessToken == "" {
		return "", apperrors.NewUnauthorizedError("session refresh returned no access token")
	}

	if err := c.session.Rotate(ctx, tokens.AccessToken, tokens.RefreshToken); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Refreshed token could not be persisted")
	}
	return tokens.AccessToken, nil
}

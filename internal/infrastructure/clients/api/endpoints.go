package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/domain/providers"
	"github.com/zatekoja/slotbook/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/slotbook/pkg/errors"
)

// Login exchanges credentials for tokens and establishes the session
func (c *Client) Login(ctx context.Context, creds entities.Credentials) (*entities.LoginResult, error) {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return nil, apperrors.NewValidationError("email and password are required")
	}

	resp, err := c.Do(ctx, &Request{Method: http.MethodPost, Path: loginPath, Body: creds, anonymous: true})
	if err != nil {
		return nil, c.logFailure(ctx, "login", err)
	}

	var out entities.LoginResult
	if err := decodeOne(resp, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, apperrors.NewExternalError("login returned no access token", nil)
	}
	if err := c.session.Establish(ctx, out.Tokens, out.User); err != nil {
		return nil, apperrors.NewInternalError("failed to store session", err)
	}
	return &out, nil
}

// Logout invalidates the refresh token upstream and always clears the local session
func (c *Client) Logout(ctx context.Context) error {
	refreshToken := c.session.Tokens().RefreshToken
	var upstreamErr error
	if refreshToken != "" {
		_, upstreamErr = c.Do(ctx, &Request{
			Method: http.MethodPost,
			Path:   logoutPath,
			Body:   map[string]string{"refreshToken": refreshToken},
		})
		if upstreamErr != nil {
			observability.LoggerFromContext(ctx).Warn().Err(upstreamErr).Msg("Upstream logout failed; clearing local session anyway")
		}
	}
	if _, err := c.session.Clear(ctx); err != nil {
		return apperrors.NewInternalError("failed to clear session", err)
	}
	return nil
}

// GetProfessional returns the profile including services and schedules
func (c *Client) GetProfessional(ctx context.Context, id string) (*entities.Professional, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("professional id is required")
	}
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/professionals/" + url.PathEscape(id)})
	if err != nil {
		return nil, c.logFailure(ctx, "get professional", err)
	}
	var out entities.Professional
	if err := decodeOne(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAvailableDates returns the ISO dates the professional can be booked on
func (c *Client) GetAvailableDates(ctx context.Context, id string, from, to time.Time) ([]string, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("professional id is required")
	}
	query := url.Values{}
	if !from.IsZero() {
		query.Set("from", from.Format(time.DateOnly))
	}
	if !to.IsZero() {
		query.Set("to", to.Format(time.DateOnly))
	}
	resp, err := c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   "/professionals/" + url.PathEscape(id) + "/available-dates",
		Query:  query,
	})
	if err != nil {
		return nil, c.logFailure(ctx, "get available dates", err)
	}

	var dates []string
	if err := decodeList(resp, &dates, "dates", "availableDates"); err != nil {
		return nil, err
	}
	for i, d := range dates {
		// tolerate full timestamps
		if len(d) > len(time.DateOnly) {
			dates[i] = d[:len(time.DateOnly)]
		}
	}
	return dates, nil
}

// ListAppointments returns appointments matching query
func (c *Client) ListAppointments(ctx context.Context, q entities.AppointmentQuery) (*entities.Page[entities.Appointment], error) {
	query := url.Values{}
	if q.ProfessionalID != "" {
		query.Set("professionalId", q.ProfessionalID)
	}
	if q.UserID != "" {
		query.Set("userId", q.UserID)
	}
	if !q.DateFrom.IsZero() {
		query.Set("dateFrom", q.DateFrom.UTC().Format(time.RFC3339))
	}
	if !q.DateTo.IsZero() {
		query.Set("dateTo", q.DateTo.UTC().Format(time.RFC3339))
	}
	if len(q.Include) > 0 {
		query.Set("include", strings.Join(q.Include, ","))
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}

	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/appointments", Query: query})
	if err != nil {
		return nil, c.logFailure(ctx, "list appointments", err)
	}
	return decodePage[entities.Appointment](resp)
}

// GetAppointment returns a single appointment
func (c *Client) GetAppointment(ctx context.Context, id string) (*entities.Appointment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("appointment id is required")
	}
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/appointments/" + url.PathEscape(id)})
	if err != nil {
		return nil, c.logFailure(ctx, "get appointment", err)
	}
	var out entities.Appointment
	if err := decodeOne(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAppointment books a new appointment
func (c *Client) CreateAppointment(ctx context.Context, appointment entities.NewAppointment) (*entities.Appointment, error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodPost, Path: "/appointments", Body: appointment})
	if err != nil {
		return nil, c.logFailure(ctx, "create appointment", err)
	}
	var out entities.Appointment
	if err := decodeOne(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAppointmentStatus moves an appointment to status
func (c *Client) UpdateAppointmentStatus(ctx context.Context, id string, status entities.AppointmentStatus) (*entities.Appointment, error) {
	resp, err := c.Do(ctx, &Request{
		Method: http.MethodPatch,
		Path:   "/appointments/" + url.PathEscape(id) + "/status",
		Body:   map[string]entities.AppointmentStatus{"status": status},
	})
	if err != nil {
		return nil, c.logFailure(ctx, "update appointment status", err)
	}
	var out entities.Appointment
	if err := decodeOne(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RescheduleAppointment assigns a new start and end time
func (c *Client) RescheduleAppointment(ctx context.Context, id string, start, end time.Time) (*entities.Appointment, error) {
	resp, err := c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/appointments/" + url.PathEscape(id) + "/reschedule",
		Body: map[string]time.Time{
			"startTime": start.UTC(),
			"endTime":   end.UTC(),
		},
	})
	if err != nil {
		return nil, c.logFailure(ctx, "reschedule appointment", err)
	}
	var out entities.Appointment
	if err := decodeOne(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCategories returns the marketplace categories
func (c *Client) ListCategories(ctx context.Context) (*entities.Page[entities.Category], error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/categories"})
	if err != nil {
		return nil, c.logFailure(ctx, "list categories", err)
	}
	return decodePage[entities.Category](resp)
}

// CreateReview posts a review
func (c *Client) CreateReview(ctx context.Context, review entities.Review) (*entities.Review, error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodPost, Path: "/reviews", Body: review})
	if err != nil {
		return nil, c.logFailure(ctx, "create review", err)
	}
	var out entities.Review
	if err := decodeOne(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDashboardStats returns booking statistics for a professional
func (c *Client) GetDashboardStats(ctx context.Context, id string) (*entities.DashboardStats, error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/professionals/" + url.PathEscape(id) + "/dashboard"})
	if err != nil {
		return nil, c.logFailure(ctx, "get dashboard stats", err)
	}
	var out entities.DashboardStats
	if err := decodeOne(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPopularServices returns a professional's most booked services
func (c *Client) GetPopularServices(ctx context.Context, id string) ([]entities.PopularService, error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/professionals/" + url.PathEscape(id) + "/popular-services"})
	if err != nil {
		return nil, c.logFailure(ctx, "get popular services", err)
	}
	var out []entities.PopularService
	if err := decodeList(resp, &out, "services"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) logFailure(ctx context.Context, operation string, err error) error {
	observability.LoggerFromContext(ctx).Warn().
		Err(err).
		Str("operation", operation).
		Str("error_type", string(apperrors.TypeOf(err))).
		Msg("API call failed")
	return err
}

// decodeOne decodes a single entity, unwrapping a `{ "data": ... }` envelope when present
func decodeOne(resp *Response, out interface{}) error {
	if data, ok := envelope(resp.Body, "data"); ok {
		return (&Response{Body: data}).Decode(out)
	}
	return resp.Decode(out)
}

// decodeList decodes a bare array or the first array found under data or keys
func decodeList(resp *Response, out interface{}, keys ...string) error {
	body := bytes.TrimSpace(resp.Body)
	if len(body) > 0 && body[0] == '[' {
		return resp.Decode(out)
	}
	for _, key := range append([]string{"data"}, keys...) {
		if data, ok := envelope(body, key); ok {
			return (&Response{Body: data}).Decode(out)
		}
	}
	return resp.Decode(out)
}

// decodePage accepts the `{ data, meta }` envelope or a bare array
func decodePage[T any](resp *Response) (*entities.Page[T], error) {
	page := &entities.Page[T]{}
	body := bytes.TrimSpace(resp.Body)
	if len(body) > 0 && body[0] == '[' {
		if err := resp.Decode(&page.Data); err != nil {
			return nil, err
		}
		page.Meta = entities.PageMeta{Total: len(page.Data), Page: 1, Limit: len(page.Data)}
	} else if err := resp.Decode(page); err != nil {
		return nil, err
	}
	if resp.FromCache {
		page.FromCache = true
		cachedAt := resp.CachedAt
		page.CachedAt = &cachedAt
	}
	return page, nil
}

func envelope(body []byte, key string) (json.RawMessage, bool) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(body, &object); err != nil {
		return nil, false
	}
	if _, hasID := object["id"]; hasID {
		return nil, false
	}
	data, ok := object[key]
	if !ok || len(data) == 0 || string(data) == "null" {
		return nil, false
	}
	return data, true
}

var (
	_ providers.AppointmentProvider  = (*Client)(nil)
	_ providers.ProfessionalProvider = (*Client)(nil)
	_ providers.ReviewProvider       = (*Client)(nil)
	_ providers.CategoryProvider     = (*Client)(nil)
)

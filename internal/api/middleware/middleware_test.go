package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zatekoja/slotbook/internal/api/middleware"
	"github.com/zatekoja/slotbook/internal/infrastructure/observability"
)

func status(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

func TestSessionExpiredMiddleware(t *testing.T) {
	handler := middleware.SessionExpiredMiddleware("/api/session/login")

	w := httptest.NewRecorder()
	handler(status(http.StatusUnauthorized)).ServeHTTP(w, httptest.NewRequest("GET", "/api/categories", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/api/session/login", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	handler(status(http.StatusForbidden)).ServeHTTP(w, httptest.NewRequest("GET", "/api/categories", nil))
	assert.Empty(t, w.Header().Get("Location"))
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("wildcard by default", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()

		middleware.CORSMiddleware(nil)(status(http.StatusOK)).ServeHTTP(w, req)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("explicit list echoes allowed origin", func(t *testing.T) {
		allowed := []string{"https://app.example.com"}

		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		middleware.CORSMiddleware(allowed)(status(http.StatusOK)).ServeHTTP(w, req)
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w = httptest.NewRecorder()
		middleware.CORSMiddleware(allowed)(status(http.StatusOK)).ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
	})

	t.Run("star in list allows any origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://other.example.com")
		w := httptest.NewRecorder()
		middleware.CORSMiddleware([]string{"https://app.example.com", "*"})(status(http.StatusOK)).ServeHTTP(w, req)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		w := httptest.NewRecorder()
		middleware.CORSMiddleware(nil)(status(http.StatusTeapot)).ServeHTTP(w, httptest.NewRequest("OPTIONS", "/api/appointments", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "traceparent")
	})
}

func TestLoggingMiddleware_PropagatesRequestID(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()

	middleware.LoggingMiddleware(status(http.StatusOK)).ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	middleware.LoggingMiddleware(status(http.StatusOK)).ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestObservabilityMiddleware_WithoutMetrics(t *testing.T) {
	var nilMetrics *observability.Metrics
	w := httptest.NewRecorder()
	middleware.ObservabilityMiddleware(nilMetrics)(status(http.StatusInternalServerError)).ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestObservabilityMiddleware_ContinuesCallerTrace(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prevProvider, prevPropagator := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})

	mux := http.NewServeMux()
	mux.Handle("GET /api/professionals/{id}/slots", middleware.ObservabilityMiddleware(nil)(status(http.StatusBadGateway)))

	req := httptest.NewRequest("GET", "/api/professionals/p1/slots", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	w := httptest.NewRecorder()
	w.Header().Set("X-Request-ID", "req-1")
	mux.ServeHTTP(w, req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "GET /api/professionals/{id}/slots", span.Name())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext().TraceID().String())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Contains(t, span.Attributes(), attribute.String("request.id", "req-1"))
	assert.Contains(t, span.Attributes(), attribute.Int("http.status_code", http.StatusBadGateway))
}

package routes

import (
	"net/http"

	"github.com/zatekoja/slotbook/internal/api/handlers"
	"github.com/zatekoja/slotbook/internal/api/middleware"
	"github.com/zatekoja/slotbook/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	sessionHandler     *handlers.SessionHandler
	slotHandler        *handlers.SlotHandler
	appointmentHandler *handlers.AppointmentHandler
	reviewHandler      *handlers.ReviewHandler
	catalogHandler     *handlers.CatalogHandler
	eventStreamHandler *handlers.EventStreamHandler

	loginPath      string
	allowedOrigins []string
	metrics        *observability.Metrics
}

// Options are the cross-cutting settings of the HTTP surface
type Options struct {
	LoginPath      string
	AllowedOrigins []string
	Metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	sessionHandler *handlers.SessionHandler,
	slotHandler *handlers.SlotHandler,
	appointmentHandler *handlers.AppointmentHandler,
	reviewHandler *handlers.ReviewHandler,
	catalogHandler *handlers.CatalogHandler,
	eventStreamHandler *handlers.EventStreamHandler,
	opts Options,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		sessionHandler:     sessionHandler,
		slotHandler:        slotHandler,
		appointmentHandler: appointmentHandler,
		reviewHandler:      reviewHandler,
		catalogHandler:     catalogHandler,
		eventStreamHandler: eventStreamHandler,
		loginPath:          opts.LoginPath,
		allowedOrigins:     opts.AllowedOrigins,
		metrics:            opts.Metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Session endpoints
	r.handle("GET /api/session", r.sessionHandler.Status)
	r.handle("POST /api/session/login", r.sessionHandler.Login)
	r.handle("POST /api/session/logout", r.sessionHandler.Logout)

	// Availability endpoints
	r.handle("GET /api/professionals/{id}/slots", r.slotHandler.GetSlots)
	r.handle("POST /api/professionals/{id}/selection", r.slotHandler.Quote)
	r.handle("GET /api/professionals/{id}/events", r.eventStreamHandler.StreamAppointmentEvents)

	// Appointment endpoints
	r.handle("POST /api/appointments", r.appointmentHandler.BookAppointment)
	r.handle("PATCH /api/appointments/{id}/status", r.appointmentHandler.UpdateStatus)
	r.handle("POST /api/appointments/{id}/reschedule", r.appointmentHandler.Reschedule)

	// Review endpoints
	r.handle("POST /api/reviews", r.reviewHandler.CreateReview)

	// Catalog endpoints
	r.handle("GET /api/categories", r.catalogHandler.ListCategories)
	r.handle("GET /api/professionals/{id}/dashboard", r.catalogHandler.GetDashboard)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.SessionExpiredMiddleware(r.loginPath)(handler)
	handler = middleware.LoggingMiddleware(handler)

	// CORS wraps everything so headers are set on every response
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}

// handle registers an API route behind the observability middleware, which
// runs after the mux has matched so the route pattern is known
func (r *Router) handle(pattern string, h http.HandlerFunc) {
	r.mux.Handle(pattern, middleware.ObservabilityMiddleware(r.metrics)(h))
}

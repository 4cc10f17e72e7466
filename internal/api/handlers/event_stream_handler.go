package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zatekoja/slotbook/internal/domain/providers"
	"github.com/zatekoja/slotbook/internal/infrastructure/observability"
)

const heartbeatInterval = 30 * time.Second

// EventStreamHandler streams appointment changes over Server-Sent Events so an
// open slot picker knows to reload the selected day
type EventStreamHandler struct {
	eventBus  providers.EventBus
	metrics   *observability.Metrics
	heartbeat time.Duration
}

// NewEventStreamHandler creates a new event stream handler. metrics may be nil.
func NewEventStreamHandler(eventBus providers.EventBus, metrics *observability.Metrics) *EventStreamHandler {
	return &EventStreamHandler{
		eventBus:  eventBus,
		metrics:   metrics,
		heartbeat: heartbeatInterval,
	}
}

// StreamAppointmentEvents handles GET /api/professionals/{id}/events
func (h *EventStreamHandler) StreamAppointmentEvents(w http.ResponseWriter, r *http.Request) {
	professionalID := r.PathValue("id")
	if professionalID == "" {
		respondWithError(w, http.StatusBadRequest, "professional ID is required")
		return
	}

	logger := observability.LoggerFromContext(r.Context())
	rc := http.NewResponseController(w)

	eventChan, err := h.eventBus.Subscribe(r.Context(), providers.GetProfessionalChannel(professionalID))
	if err != nil {
		logger.Error().Err(err).Str("professional_id", professionalID).Msg("Failed to subscribe to appointment events")
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	observability.RecordEventStream(r.Context(), h.metrics, 1)
	defer observability.RecordEventStream(context.WithoutCancel(r.Context()), h.metrics, -1)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Streams outlive the server's write timeout
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logger.Warn().Err(err).Msg("Failed to clear write deadline")
	}

	h.sendEvent(w, "connected", map[string]any{
		"professionalId": professionalID,
		"timestamp":      time.Now(),
	})
	if err := rc.Flush(); err != nil {
		logger.Error().Err(err).Msg("Streaming not supported")
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Str("professional_id", professionalID).Msg("Client disconnected from event stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]any{
				"timestamp": time.Now(),
			})
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			h.sendEvent(w, string(event.EventType), event)
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// sendEvent writes one SSE frame
func (h *EventStreamHandler) sendEvent(w http.ResponseWriter, eventType string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

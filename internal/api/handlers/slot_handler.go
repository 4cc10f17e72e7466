package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/slotbook/internal/application/services"
)

// SlotService defines the availability operations the slot handler needs
type SlotService interface {
	Calendar(ctx context.Context, professionalID string) (*services.CalendarView, error)
	ParseDate(raw string) (time.Time, error)
	Quote(ctx context.Context, req services.QuoteRequest) (*services.Quote, error)
}

// SlotHandler handles availability requests
type SlotHandler struct {
	service SlotService
}

// NewSlotHandler creates a new slot handler
func NewSlotHandler(service SlotService) *SlotHandler {
	return &SlotHandler{service: service}
}

type slotsResponse struct {
	*services.DayAvailability
	SelectedDate string `json:"selectedDate"`
	Filter       string `json:"filter"`
}

// GetSlots handles GET /api/professionals/{id}/slots?date=YYYY-MM-DD&service=all|id
func (h *SlotHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	professionalID := r.PathValue("id")
	if professionalID == "" {
		respondWithError(w, http.StatusBadRequest, "professional ID is required")
		return
	}

	view, err := h.service.Calendar(r.Context(), professionalID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if filter := r.URL.Query().Get("service"); filter != "" {
		if err := view.SetServiceFilter(filter); err != nil {
			respondWithAppError(w, r, err)
			return
		}
	}
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := h.service.ParseDate(raw)
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		if err := view.SelectDate(date); err != nil {
			respondWithAppError(w, r, err)
			return
		}
	}

	day, err := view.Load(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, slotsResponse{
		DayAvailability: day,
		SelectedDate:    view.SelectedDate().Format(time.DateOnly),
		Filter:          view.Filter(),
	})
}

// Quote handles POST /api/professionals/{id}/selection
func (h *SlotHandler) Quote(w http.ResponseWriter, r *http.Request) {
	professionalID := r.PathValue("id")
	if professionalID == "" {
		respondWithError(w, http.StatusBadRequest, "professional ID is required")
		return
	}

	var req services.QuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	req.ProfessionalID = professionalID

	quote, err := h.service.Quote(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, quote)
}

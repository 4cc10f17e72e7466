package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/slotbook/internal/application/services"
	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/session"
)

// AppointmentService defines the interface for appointment operations
type AppointmentService interface {
	Book(ctx context.Context, req services.BookingRequest) (*services.Booking, error)
	UpdateStatus(ctx context.Context, id string, status string) (*entities.Appointment, error)
	Reschedule(ctx context.Context, id string, start, end time.Time) (*entities.Appointment, error)
}

// AppointmentHandler handles appointment requests
type AppointmentHandler struct {
	service AppointmentService
	session *session.Session
}

// NewAppointmentHandler creates a new appointment handler. Bookings without a
// user id are made for the session's user.
func NewAppointmentHandler(service AppointmentService, sess *session.Session) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
		session: sess,
	}
}

// BookAppointment handles POST /api/appointments
func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req services.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if req.UserID == "" && h.session != nil {
		if user := h.session.User(); user != nil {
			req.UserID = user.ID
		}
	}

	booking, err := h.service.Book(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, booking)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/appointments/{id}/status
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	appointment, err := h.service.UpdateStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, appointment)
}

type rescheduleRequest struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// Reschedule handles POST /api/appointments/{id}/reschedule
func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	appointment, err := h.service.Reschedule(r.Context(), r.PathValue("id"), req.StartTime, req.EndTime)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, appointment)
}

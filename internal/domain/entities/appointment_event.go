package entities

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentEventType represents what happened to an appointment
type AppointmentEventType string

const (
	AppointmentEventBooked        AppointmentEventType = "appointment_booked"
	AppointmentEventStatusChanged AppointmentEventType = "appointment_status_changed"
	AppointmentEventRescheduled   AppointmentEventType = "appointment_rescheduled"
)

// AppointmentEvent tells subscribers that a professional's occupancy changed
// and any day view they hold may be stale
type AppointmentEvent struct {
	ID             string               `json:"id"`
	ProfessionalID string               `json:"professionalId"`
	AppointmentID  string               `json:"appointmentId"`
	EventType      AppointmentEventType `json:"eventType"`
	Status         AppointmentStatus    `json:"status,omitempty"`
	StartTime      time.Time            `json:"startTime"`
	Timestamp      time.Time            `json:"timestamp"`
}

// NewAppointmentEvent creates an event for appointment
func NewAppointmentEvent(eventType AppointmentEventType, appointment *Appointment) *AppointmentEvent {
	return &AppointmentEvent{
		ID:             uuid.NewString(),
		ProfessionalID: appointment.ProfessionalID,
		AppointmentID:  appointment.ID,
		EventType:      eventType,
		Status:         appointment.Status,
		StartTime:      appointment.StartTime,
		Timestamp:      time.Now(),
	}
}

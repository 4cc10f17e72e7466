package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/domain/providers"
	"github.com/zatekoja/slotbook/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/slotbook/pkg/errors"
)

// AppointmentService handles appointment booking logic
type AppointmentService struct {
	provider      providers.AppointmentProvider
	professionals providers.ProfessionalProvider
	events        providers.EventBus
	location      *time.Location
	now           func() time.Time
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(provider providers.AppointmentProvider, professionals providers.ProfessionalProvider, loc *time.Location) *AppointmentService {
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentService{
		provider:      provider,
		professionals: professionals,
		location:      loc,
		now:           time.Now,
	}
}

// WithEventBus publishes every booking, status change and reschedule on the
// professional's channel
func (s *AppointmentService) WithEventBus(bus providers.EventBus) *AppointmentService {
	s.events = bus
	return s
}

// BookingRequest books one or more services back to back from StartTime
type BookingRequest struct {
	ProfessionalID string    `json:"professionalId"`
	ServiceIDs     []string  `json:"serviceIds"`
	UserID         string    `json:"userId,omitempty"`
	StartTime      time.Time `json:"startTime"`
	Notes          string    `json:"notes,omitempty"`
}

// Booking is the result of a successful BookingRequest
type Booking struct {
	Appointments []*entities.Appointment `json:"appointments"`
	Totals       Totals                  `json:"totals"`
	EndTime      time.Time               `json:"endTime"`
}

// Book creates one appointment per service. Each appointment starts when the
// previous one ends, so the whole booking ends at start + total duration.
func (s *AppointmentService) Book(ctx context.Context, req BookingRequest) (*Booking, error) {
	if strings.TrimSpace(req.ProfessionalID) == "" {
		return nil, apperrors.NewValidationError("professional id is required")
	}
	if len(req.ServiceIDs) == 0 {
		return nil, apperrors.NewValidationError("at least one service id is required")
	}
	if req.StartTime.IsZero() {
		return nil, apperrors.NewValidationError("start time is required")
	}
	if !req.StartTime.After(s.now()) {
		return nil, apperrors.NewValidationError("cannot book appointment in the past")
	}

	professional, err := s.professionals.GetProfessional(ctx, req.ProfessionalID)
	if err != nil {
		return nil, err
	}

	services := make([]entities.Service, 0, len(req.ServiceIDs))
	seen := make(map[string]bool, len(req.ServiceIDs))
	for _, id := range req.ServiceIDs {
		if strings.TrimSpace(id) == "" {
			return nil, apperrors.NewValidationError("service id is required")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		service, ok := professional.ServiceByID(id)
		if !ok {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("service %s not found for this professional", id))
		}
		if service.Duration <= 0 {
			return nil, apperrors.NewDomainError(fmt.Sprintf("service %s has no bookable duration", id))
		}
		services = append(services, service)
	}

	logger := observability.LoggerFromContext(ctx)
	booking := &Booking{Totals: Totals{}}
	start := req.StartTime
	for _, service := range services {
		end := start.Add(time.Duration(service.Duration) * time.Minute)
		appointment, err := s.provider.CreateAppointment(ctx, entities.NewAppointment{
			ProfessionalID: req.ProfessionalID,
			ServiceID:      service.ID,
			UserID:         req.UserID,
			StartTime:      start,
			EndTime:        end,
			Notes:          req.Notes,
		})
		if err != nil {
			if len(booking.Appointments) > 0 {
				logger.Error().
					Err(err).
					Strs("created_ids", appointmentIDs(booking.Appointments)).
					Msg("Booking partially created")
			}
			return nil, err
		}
		booking.Appointments = append(booking.Appointments, appointment)
		booking.Totals.DurationMinutes += int(service.Duration)
		booking.Totals.Price = booking.Totals.Price.Add(service.Price.Decimal())
		start = end
	}
	booking.EndTime = start
	for _, appointment := range booking.Appointments {
		s.publish(ctx, entities.AppointmentEventBooked, appointment, req.ProfessionalID)
	}

	logger.Info().
		Str("professional_id", req.ProfessionalID).
		Strs("appointment_ids", appointmentIDs(booking.Appointments)).
		Msg("Appointment booked")
	return booking, nil
}

// UpdateStatus moves an appointment to next. Invalid transitions and early
// no-shows are rejected before the backend is asked to change anything.
func (s *AppointmentService) UpdateStatus(ctx context.Context, id string, next string) (*entities.Appointment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("appointment id is required")
	}
	status, err := entities.ParseAppointmentStatus(next)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	current, err := s.provider.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if status == entities.AppointmentStatusNoShow && !current.CanMarkNoShow(s.now()) {
		if !current.StartTime.Before(s.now()) {
			return nil, apperrors.NewDomainError("an appointment can only be marked as no-show after it has started")
		}
		return nil, apperrors.NewDomainError("only pending or confirmed appointments can be marked as no-show")
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, apperrors.NewDomainError(fmt.Sprintf("cannot change appointment from %s to %s", current.Status, status))
	}

	updated, err := s.provider.UpdateAppointmentStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, entities.AppointmentEventStatusChanged, updated, current.ProfessionalID)
	return updated, nil
}

// Reschedule assigns a new window to an appointment
func (s *AppointmentService) Reschedule(ctx context.Context, id string, start, end time.Time) (*entities.Appointment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("appointment id is required")
	}
	if start.IsZero() || end.IsZero() {
		return nil, apperrors.NewValidationError("start and end time are required")
	}
	if !start.Before(end) {
		return nil, apperrors.NewValidationError("start time must be before end time")
	}
	if !start.After(s.now()) {
		return nil, apperrors.NewValidationError("cannot reschedule into the past")
	}
	updated, err := s.provider.RescheduleAppointment(ctx, id, start, end)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, entities.AppointmentEventRescheduled, updated, "")
	return updated, nil
}

// publish announces a change. professionalID fills in for backends that leave
// it out of the response. Failures are logged because the change itself
// already succeeded.
func (s *AppointmentService) publish(ctx context.Context, eventType entities.AppointmentEventType, appointment *entities.Appointment, professionalID string) {
	if s.events == nil || appointment == nil {
		return
	}
	event := entities.NewAppointmentEvent(eventType, appointment)
	if event.ProfessionalID == "" {
		event.ProfessionalID = professionalID
	}
	if event.ProfessionalID == "" {
		return
	}
	if err := s.events.Publish(ctx, providers.GetProfessionalChannel(event.ProfessionalID), event); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("event_type", string(eventType)).
			Str("appointment_id", appointment.ID).
			Msg("Failed to publish appointment event")
	}
}

func appointmentIDs(appointments []*entities.Appointment) []string {
	ids := make([]string, len(appointments))
	for i, a := range appointments {
		ids[i] = a.ID
	}
	return ids
}

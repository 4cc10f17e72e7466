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

// calendarWindow is how far ahead available dates are fetched
const calendarWindow = 60 * 24 * time.Hour

const (
	appointmentPageSize = 100
	maxAppointmentPages = 50
)

// AvailabilityService computes bookable slots from the backend's data
type AvailabilityService struct {
	professionals providers.ProfessionalProvider
	appointments  providers.AppointmentProvider
	location      *time.Location
	now           func() time.Time
}

// NewAvailabilityService creates a new availability service. Dates are
// interpreted in loc.
func NewAvailabilityService(professionals providers.ProfessionalProvider, appointments providers.AppointmentProvider, loc *time.Location) *AvailabilityService {
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityService{
		professionals: professionals,
		appointments:  appointments,
		location:      loc,
		now:           time.Now,
	}
}

// Location returns the time zone schedules are interpreted in
func (s *AvailabilityService) Location() *time.Location {
	return s.location
}

// ParseDate reads an ISO date as midnight in the service's location
func (s *AvailabilityService) ParseDate(raw string) (time.Time, error) {
	date, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(raw), s.location)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("date must be formatted as YYYY-MM-DD")
	}
	return date, nil
}

// Professional fetches the professional and their services
func (s *AvailabilityService) Professional(ctx context.Context, professionalID string) (*entities.Professional, error) {
	if strings.TrimSpace(professionalID) == "" {
		return nil, apperrors.NewValidationError("professional id is required")
	}
	return s.professionals.GetProfessional(ctx, professionalID)
}

// DayAvailability computes one day's slots for a professional
func (s *AvailabilityService) DayAvailability(ctx context.Context, professionalID string, date time.Time, filter string) (*DayAvailability, error) {
	professional, err := s.Professional(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	return s.DayAvailabilityFor(ctx, *professional, date, filter)
}

// DayAvailabilityFor computes one day's slots for an already loaded
// professional. When the day's appointments cannot be fetched every
// generated slot is reported and OccupancyKnown is false.
func (s *AvailabilityService) DayAvailabilityFor(ctx context.Context, professional entities.Professional, date time.Time, filter string) (*DayAvailability, error) {
	logger := observability.LoggerFromContext(ctx)
	ctx, span := observability.StartSpan(ctx, "AvailabilityService.DayAvailability")
	defer span.End()

	if filter != "" && filter != ServiceFilterAll {
		if _, ok := professional.ServiceByID(filter); !ok {
			return nil, apperrors.NewNotFoundError("service not found for this professional")
		}
	}

	y, m, d := date.In(s.location).Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, s.location)
	dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Second)

	query := DayQuery{
		Date:           dayStart,
		Location:       s.location,
		Services:       professional.Services,
		ServiceFilter:  filter,
		OccupancyKnown: true,
	}

	booked, err := s.dayAppointments(ctx, entities.AppointmentQuery{
		ProfessionalID: professional.ID,
		DateFrom:       dayStart,
		DateTo:         dayEnd,
		Include:        []string{"service"},
	})
	if err != nil {
		observability.RecordError(span, err)
		logger.Warn().
			Err(err).
			Str("professional_id", professional.ID).
			Str("date", dayStart.Format(time.DateOnly)).
			Msg("Appointments unavailable; showing slots without occupancy")
		query.OccupancyKnown = false
	} else {
		for _, appt := range booked {
			if !appt.Status.IsKnown() {
				logger.Warn().
					Str("appointment_id", appt.ID).
					Str("status", string(appt.Status)).
					Msg("Unrecognized appointment status; treating the slot as taken")
			}
		}
		query.Appointments = booked
	}

	result := BuildDayAvailability(query)
	if len(result.InvalidServices) > 0 {
		logger.Warn().
			Strs("service_ids", result.InvalidServices).
			Str("weekday", string(result.Weekday)).
			Msg("Skipped services with an invalid schedule window")
	}
	return &result, nil
}

// dayAppointments walks every page of q. A partial day would show booked
// times as open, so any page failing fails the whole fetch.
func (s *AvailabilityService) dayAppointments(ctx context.Context, q entities.AppointmentQuery) ([]entities.Appointment, error) {
	q.Limit = appointmentPageSize
	var collected []entities.Appointment
	for q.Page = 1; q.Page <= maxAppointmentPages; q.Page++ {
		page, err := s.appointments.ListAppointments(ctx, q)
		if err != nil {
			return nil, err
		}
		collected = append(collected, page.Data...)

		if len(page.Data) == 0 || len(collected) >= page.Meta.Total {
			return collected, nil
		}
	}
	return nil, fmt.Errorf("appointments for %s span more than %d pages", q.DateFrom.Format(time.DateOnly), maxAppointmentPages)
}

// AvailableDates returns the dates the backend reports as bookable, or nil
// when they could not be fetched
func (s *AvailabilityService) AvailableDates(ctx context.Context, professionalID string, from, to time.Time) []string {
	dates, err := s.professionals.GetAvailableDates(ctx, professionalID, from, to)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("professional_id", professionalID).
			Msg("Available dates unavailable; calendar pre-filter disabled")
		return nil
	}
	if dates == nil {
		dates = []string{}
	}
	return dates
}

// Calendar loads a professional and their available dates into a CalendarView
func (s *AvailabilityService) Calendar(ctx context.Context, professionalID string) (*CalendarView, error) {
	professional, err := s.Professional(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	today := s.now().In(s.location)
	dates := s.AvailableDates(ctx, professionalID, today, today.Add(calendarWindow))
	return NewCalendarView(s, *professional, dates, s.location, s.now), nil
}

// QuoteRequest asks for the totals of services picked at one slot
type QuoteRequest struct {
	ProfessionalID string   `json:"-"`
	Date           string   `json:"date"`
	Time           string   `json:"time"`
	ServiceFilter  string   `json:"service,omitempty"`
	ServiceIDs     []string `json:"serviceIds"`
}

// Quote is the priced selection and where to book it
type Quote struct {
	Totals   Totals             `json:"totals"`
	Services []entities.Service `json:"services"`
	Target   BookingTarget      `json:"target"`
	Path     string             `json:"path"`
}

// Quote validates a multi-service selection against the day's availability
func (s *AvailabilityService) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	date, err := s.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if _, err := entities.ParseClockTime(req.Time); err != nil {
		return nil, apperrors.NewValidationError("time must be formatted as HH:MM")
	}

	day, err := s.DayAvailability(ctx, req.ProfessionalID, date, req.ServiceFilter)
	if err != nil {
		return nil, err
	}
	slot, ok := day.FindSlot(req.Time)
	if !ok {
		return nil, apperrors.NewValidationError("no slot at " + req.Time + " on " + day.Date)
	}

	selection, err := SelectSlot(slot)
	if err != nil {
		return nil, err
	}
	for _, id := range req.ServiceIDs {
		if err := selection.Select(id); err != nil {
			return nil, err
		}
	}

	target, err := selection.Confirm(req.ProfessionalID, date)
	if err != nil {
		return nil, err
	}
	return &Quote{
		Totals:   selection.Totals(),
		Services: selection.Selected(),
		Target:   target,
		Path:     target.Path(),
	}, nil
}

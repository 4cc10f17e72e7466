package providers

import (
	"context"
	"time"

	"github.com/zatekoja/slotbook/internal/domain/entities"
)

// AppointmentProvider is the marketplace backend's appointment API
type AppointmentProvider interface {
	// GetAppointment returns a single appointment
	GetAppointment(ctx context.Context, id string) (*entities.Appointment, error)

	// ListAppointments returns appointments matching query
	ListAppointments(ctx context.Context, query entities.AppointmentQuery) (*entities.Page[entities.Appointment], error)

	// CreateAppointment books a new appointment
	CreateAppointment(ctx context.Context, appointment entities.NewAppointment) (*entities.Appointment, error)

	// UpdateAppointmentStatus moves an appointment to status
	UpdateAppointmentStatus(ctx context.Context, id string, status entities.AppointmentStatus) (*entities.Appointment, error)

	// RescheduleAppointment assigns a new start and end time
	RescheduleAppointment(ctx context.Context, id string, start, end time.Time) (*entities.Appointment, error)
}

// ProfessionalProvider is the marketplace backend's professional API
type ProfessionalProvider interface {
	// GetProfessional returns the profile including services and schedules
	GetProfessional(ctx context.Context, id string) (*entities.Professional, error)

	// GetAvailableDates returns the ISO dates (YYYY-MM-DD) the professional can be booked on
	GetAvailableDates(ctx context.Context, id string, from, to time.Time) ([]string, error)

	// GetDashboardStats returns booking statistics for the dashboard
	GetDashboardStats(ctx context.Context, id string) (*entities.DashboardStats, error)

	// GetPopularServices returns the most booked services
	GetPopularServices(ctx context.Context, id string) ([]entities.PopularService, error)
}

// ReviewProvider is the marketplace backend's review API
type ReviewProvider interface {
	CreateReview(ctx context.Context, review entities.Review) (*entities.Review, error)
}

// CategoryProvider is the marketplace backend's category API
type CategoryProvider interface {
	ListCategories(ctx context.Context) (*entities.Page[entities.Category], error)
}

package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/slotbook/internal/domain/entities"
)

// Mocks

type MockAppointmentProvider struct {
	mock.Mock
}

func (m *MockAppointmentProvider) GetAppointment(ctx context.Context, id string) (*entities.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Appointment), args.Error(1)
}

func (m *MockAppointmentProvider) ListAppointments(ctx context.Context, query entities.AppointmentQuery) (*entities.Page[entities.Appointment], error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Page[entities.Appointment]), args.Error(1)
}

func (m *MockAppointmentProvider) CreateAppointment(ctx context.Context, appointment entities.NewAppointment) (*entities.Appointment, error) {
	args := m.Called(ctx, appointment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Appointment), args.Error(1)
}

func (m *MockAppointmentProvider) UpdateAppointmentStatus(ctx context.Context, id string, status entities.AppointmentStatus) (*entities.Appointment, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Appointment), args.Error(1)
}

func (m *MockAppointmentProvider) RescheduleAppointment(ctx context.Context, id string, start, end time.Time) (*entities.Appointment, error) {
	args := m.Called(ctx, id, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Appointment), args.Error(1)
}

type MockProfessionalProvider struct {
	mock.Mock
}

func (m *MockProfessionalProvider) GetProfessional(ctx context.Context, id string) (*entities.Professional, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Professional), args.Error(1)
}

func (m *MockProfessionalProvider) GetAvailableDates(ctx context.Context, id string, from, to time.Time) ([]string, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProfessionalProvider) GetDashboardStats(ctx context.Context, id string) (*entities.DashboardStats, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DashboardStats), args.Error(1)
}

func (m *MockProfessionalProvider) GetPopularServices(ctx context.Context, id string) ([]entities.PopularService, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.PopularService), args.Error(1)
}

type MockReviewProvider struct {
	mock.Mock
}

func (m *MockReviewProvider) CreateReview(ctx context.Context, review entities.Review) (*entities.Review, error) {
	args := m.Called(ctx, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Review), args.Error(1)
}

// Fixtures

// monday is 2025-03-03
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func service(id string, duration int, price string, entries ...entities.ScheduleEntry) entities.Service {
	return entities.Service{
		ID:       id,
		Name:     "Service " + id,
		Price:    entities.Amount(price),
		Duration: entities.Minutes(duration),
		Schedule: entries,
	}
}

func window(day entities.Weekday, start, end string) entities.ScheduleEntry {
	return entities.ScheduleEntry{DayOfWeek: day, StartTime: start, EndTime: end}
}

func appointmentAt(serviceID string, start time.Time, status entities.AppointmentStatus) entities.Appointment {
	return entities.Appointment{
		ID:        "appt-" + serviceID + "-" + start.Format("1504"),
		ServiceID: serviceID,
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Status:    status,
	}
}

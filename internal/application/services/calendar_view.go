package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zatekoja/slotbook/internal/domain/entities"
	apperrors "github.com/zatekoja/slotbook/pkg/errors"
)

// ErrSuperseded is returned by CalendarView.Load when the date or filter
// changed while the load was in flight. The view keeps the newer state.
var ErrSuperseded = errors.New("availability load superseded by a newer selection")

// DayLoader computes one day's availability for a loaded professional
type DayLoader interface {
	DayAvailabilityFor(ctx context.Context, professional entities.Professional, date time.Time, filter string) (*DayAvailability, error)
}

// CalendarView is the state behind a professional's booking calendar: the
// selected date, the service filter and the last loaded availability.
type CalendarView struct {
	loader       DayLoader
	professional entities.Professional
	location     *time.Location
	now          func() time.Time

	mu         sync.Mutex
	available  map[string]bool
	selected   time.Time
	filter     string
	generation uint64
	current    *DayAvailability
}

// NewCalendarView starts on today. availableDates restricts which dates can
// be picked; nil means the list is unknown and only past dates are refused.
func NewCalendarView(loader DayLoader, professional entities.Professional, availableDates []string, loc *time.Location, now func() time.Time) *CalendarView {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	v := &CalendarView{
		loader:       loader,
		professional: professional,
		location:     loc,
		now:          now,
		filter:       ServiceFilterAll,
	}
	if availableDates != nil {
		v.available = make(map[string]bool, len(availableDates))
		for _, d := range availableDates {
			v.available[d] = true
		}
	}
	v.selected = v.today()
	return v
}

func (v *CalendarView) today() time.Time {
	y, m, d := v.now().In(v.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, v.location)
}

func (v *CalendarView) startOfDay(date time.Time) time.Time {
	y, m, d := date.In(v.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, v.location)
}

// IsSelectable reports whether date is today or later and, when the
// available dates are known, listed among them
func (v *CalendarView) IsSelectable(date time.Time) bool {
	day := v.startOfDay(date)
	if day.Before(v.today()) {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.available == nil || v.available[day.Format(time.DateOnly)]
}

// SelectDate moves the calendar to date
func (v *CalendarView) SelectDate(date time.Time) error {
	if !v.IsSelectable(date) {
		return apperrors.NewValidationError(v.startOfDay(date).Format(time.DateOnly) + " is not available for booking")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = v.startOfDay(date)
	v.generation++
	return nil
}

// SetServiceFilter shows a single service, or every service for "" and "all".
// When the filtered service does not run on the selected weekday the
// selection falls back to today.
func (v *CalendarView) SetServiceFilter(filter string) error {
	if filter == "" {
		filter = ServiceFilterAll
	}
	var service entities.Service
	if filter != ServiceFilterAll {
		var ok bool
		if service, ok = v.professional.ServiceByID(filter); !ok {
			return apperrors.NewNotFoundError("service not found for this professional")
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = filter
	if filter != ServiceFilterAll {
		if _, ok := service.EntryFor(entities.WeekdayOf(v.selected)); !ok {
			v.selected = v.today()
		}
	}
	v.generation++
	return nil
}

// SelectedDate returns the date the calendar shows
func (v *CalendarView) SelectedDate() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected
}

// Filter returns the active service filter
func (v *CalendarView) Filter() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// Current returns the last availability stored by Load
func (v *CalendarView) Current() (*DayAvailability, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current, v.current != nil
}

// Load computes availability for the selected date and filter. A result that
// arrives after the selection changed is dropped with ErrSuperseded.
func (v *CalendarView) Load(ctx context.Context) (*DayAvailability, error) {
	v.mu.Lock()
	generation := v.generation
	date := v.selected
	filter := v.filter
	v.mu.Unlock()

	result, err := v.loader.DayAvailabilityFor(ctx, v.professional, date, filter)

	v.mu.Lock()
	defer v.mu.Unlock()
	if generation != v.generation {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	v.current = result
	return result, nil
}

package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/slotbook/internal/application/services"
	"github.com/zatekoja/slotbook/internal/domain/entities"
)

// blockingLoader returns once release is signalled for the requested date
type blockingLoader struct {
	mu       sync.Mutex
	release  map[string]chan struct{}
	started  chan string
	requests []string
}

func newBlockingLoader() *blockingLoader {
	return &blockingLoader{release: map[string]chan struct{}{}, started: make(chan string, 8)}
}

func (l *blockingLoader) gate(date string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.release[date] == nil {
		l.release[date] = make(chan struct{})
	}
	return l.release[date]
}

func (l *blockingLoader) DayAvailabilityFor(ctx context.Context, professional entities.Professional, date time.Time, filter string) (*services.DayAvailability, error) {
	key := date.Format(time.DateOnly)
	l.mu.Lock()
	l.requests = append(l.requests, key+"/"+filter)
	l.mu.Unlock()
	l.started <- key
	<-l.gate(key)
	return &services.DayAvailability{Date: key, State: services.AvailabilityOpen}, nil
}

func calendarProfessional() entities.Professional {
	return entities.Professional{ID: "p1", Services: []entities.Service{
		service("weekday", 30, "20", window(entities.Monday, "09:00", "10:00"), window(entities.Wednesday, "09:00", "10:00")),
		service("sunday", 30, "20", window(entities.Sunday, "09:00", "10:00")),
	}}
}

func fixedNow() time.Time {
	// Saturday 2025-03-01 12:00
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestCalendarView_IsSelectable(t *testing.T) {
	view := services.NewCalendarView(newBlockingLoader(), calendarProfessional(), []string{"2025-03-01", "2025-03-03"}, time.UTC, fixedNow)

	assert.True(t, view.IsSelectable(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)), "today")
	assert.True(t, view.IsSelectable(monday))
	assert.False(t, view.IsSelectable(time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)), "past")
	assert.False(t, view.IsSelectable(time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)), "not listed")

	unknown := services.NewCalendarView(newBlockingLoader(), calendarProfessional(), nil, time.UTC, fixedNow)
	assert.True(t, unknown.IsSelectable(time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)))
	assert.False(t, unknown.IsSelectable(time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)))

	none := services.NewCalendarView(newBlockingLoader(), calendarProfessional(), []string{}, time.UTC, fixedNow)
	assert.False(t, none.IsSelectable(monday))
}

func TestCalendarView_SelectDateRejectsPast(t *testing.T) {
	view := services.NewCalendarView(newBlockingLoader(), calendarProfessional(), nil, time.UTC, fixedNow)

	assert.Error(t, view.SelectDate(time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, view.SelectDate(monday))
	assert.Equal(t, monday, view.SelectedDate())
}

func TestCalendarView_FilterResetsInapplicableDate(t *testing.T) {
	view := services.NewCalendarView(newBlockingLoader(), calendarProfessional(), nil, time.UTC, fixedNow)
	require.NoError(t, view.SelectDate(monday))

	require.NoError(t, view.SetServiceFilter("weekday"))
	assert.Equal(t, monday, view.SelectedDate(), "monday is still served")

	require.NoError(t, view.SetServiceFilter("sunday"))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), view.SelectedDate(), "reset to today")
	assert.Equal(t, "sunday", view.Filter())

	require.NoError(t, view.SetServiceFilter(""))
	assert.Equal(t, services.ServiceFilterAll, view.Filter())

	assert.Error(t, view.SetServiceFilter("missing"))
}

func TestCalendarView_LoadDiscardsSupersededResults(t *testing.T) {
	loader := newBlockingLoader()
	view := services.NewCalendarView(loader, calendarProfessional(), nil, time.UTC, fixedNow)
	require.NoError(t, view.SelectDate(monday))

	type outcome struct {
		day *services.DayAvailability
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		day, err := view.Load(context.Background())
		first <- outcome{day, err}
	}()
	assert.Equal(t, "2025-03-03", <-loader.started)

	wednesday := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, view.SelectDate(wednesday))
	second := make(chan outcome, 1)
	go func() {
		day, err := view.Load(context.Background())
		second <- outcome{day, err}
	}()
	assert.Equal(t, "2025-03-05", <-loader.started)

	// the newer load lands first, then the stale one
	close(loader.gate("2025-03-05"))
	latest := <-second
	require.NoError(t, latest.err)
	assert.Equal(t, "2025-03-05", latest.day.Date)

	close(loader.gate("2025-03-03"))
	stale := <-first
	assert.ErrorIs(t, stale.err, services.ErrSuperseded)

	current, ok := view.Current()
	require.True(t, ok)
	assert.Equal(t, "2025-03-05", current.Date)
}

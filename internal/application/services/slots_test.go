package services_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/slotbook/internal/application/services"
	"github.com/zatekoja/slotbook/internal/domain/entities"
)

func slotTimes(slots []services.DaySlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Time
	}
	return out
}

func serviceIDs(svcs []entities.Service) []string {
	out := make([]string, len(svcs))
	for i, s := range svcs {
		out[i] = s.ID
	}
	return out
}

func TestExpandSchedule(t *testing.T) {
	tests := []struct {
		start, end string
		want       []string
	}{
		{"09:00", "11:00", []string{"09:00", "09:30", "10:00", "10:30", "11:00"}},
		{"09:00", "09:30", []string{"09:00", "09:30"}},
		{"09:15", "10:00", []string{"09:15", "09:45", "10:00"}},
		{"22:30", "23:59", []string{"22:30", "23:00", "23:30", "23:59"}},
	}
	for _, tt := range tests {
		t.Run(tt.start+"-"+tt.end, func(t *testing.T) {
			got, err := services.ExpandSchedule(window(entities.Monday, tt.start, tt.end), services.SlotGranularity)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := services.ExpandSchedule(window(entities.Monday, "11:00", "09:00"), services.SlotGranularity)
	assert.Error(t, err)
	_, err = services.ExpandSchedule(window(entities.Monday, "09:00", "11:00"), 0)
	assert.Error(t, err)
}

func TestExpandSchedule_BoundsHoldForAllHalfHourWindows(t *testing.T) {
	for start := 0; start < 24*60; start += 30 {
		for end := start + 30; end < 24*60; end += 30 {
			s := entities.ClockTime(start).String()
			e := entities.ClockTime(end).String()

			got, err := services.ExpandSchedule(window(entities.Monday, s, e), services.SlotGranularity)
			require.NoError(t, err, fmt.Sprintf("%s-%s", s, e))

			assert.Equal(t, s, got[0])
			assert.Equal(t, e, got[len(got)-1])
			assert.Len(t, got, (end-start)/30+1)
			for i := 1; i < len(got); i++ {
				prev, _ := entities.ParseClockTime(got[i-1])
				cur, _ := entities.ParseClockTime(got[i])
				assert.Equal(t, entities.ClockTime(30), cur-prev)
			}
		}
	}
}

func TestServicesForDay(t *testing.T) {
	svcs := []entities.Service{
		service("x", 30, "10", window(entities.Monday, "09:00", "11:00")),
		service("y", 30, "10", window(entities.Tuesday, "09:00", "11:00")),
		service("z", 30, "10", window(entities.Monday, "13:00", "14:00")),
	}

	assert.Equal(t, []string{"x", "z"}, serviceIDs(services.ServicesForDay(svcs, entities.Monday, "")))
	assert.Equal(t, []string{"x", "z"}, serviceIDs(services.ServicesForDay(svcs, entities.Monday, "all")))
	assert.Equal(t, []string{"z"}, serviceIDs(services.ServicesForDay(svcs, entities.Monday, "z")))
	assert.Empty(t, services.ServicesForDay(svcs, entities.Monday, "y"))
	assert.Empty(t, services.ServicesForDay(svcs, entities.Sunday, ""))
}

func TestBuildDayAvailability_SingleServiceOpenDay(t *testing.T) {
	day := services.BuildDayAvailability(services.DayQuery{
		Date:           monday,
		Location:       time.UTC,
		Services:       []entities.Service{service("x", 30, "20", window(entities.Monday, "09:00", "11:00"))},
		OccupancyKnown: true,
	})

	assert.Equal(t, services.AvailabilityOpen, day.State)
	assert.Equal(t, "2025-03-03", day.Date)
	assert.Equal(t, entities.Monday, day.Weekday)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00"}, slotTimes(day.Slots))
	for _, slot := range day.Slots {
		assert.True(t, slot.Available, slot.Time)
		assert.Equal(t, []string{"x"}, serviceIDs(slot.Services))
	}
}

func TestBuildDayAvailability_BookedTimeIsExcluded(t *testing.T) {
	day := services.BuildDayAvailability(services.DayQuery{
		Date:          monday,
		Location:      time.UTC,
		Services:      []entities.Service{service("x", 30, "20", window(entities.Monday, "09:00", "11:00"))},
		ServiceFilter: "x",
		Appointments: []entities.Appointment{
			appointmentAt("x", monday.Add(10*time.Hour), entities.AppointmentStatusConfirmed),
		},
		OccupancyKnown: true,
	})

	assert.Equal(t, services.AvailabilityOpen, day.State)
	for _, slot := range day.Slots {
		if slot.Time == "10:00" {
			assert.False(t, slot.Available)
			assert.Empty(t, slot.Services)
			continue
		}
		assert.True(t, slot.Available, slot.Time)
	}
}

func TestBuildDayAvailability_PerServiceOccupancy(t *testing.T) {
	svcs := []entities.Service{
		service("x", 30, "20", window(entities.Monday, "09:00", "10:00")),
		service("y", 45, "30", window(entities.Monday, "09:00", "10:00")),
	}
	booked := []entities.Appointment{
		appointmentAt("x", monday.Add(9*time.Hour+30*time.Minute), entities.AppointmentStatusPending),
	}

	t.Run("filter keeps other services at the booked time", func(t *testing.T) {
		day := services.BuildDayAvailability(services.DayQuery{
			Date: monday, Location: time.UTC, Services: svcs, Appointments: booked,
			ServiceFilter: "y", OccupancyKnown: true,
		})
		slot, ok := day.FindSlot("09:30")
		require.True(t, ok)
		assert.True(t, slot.Available)
		assert.Equal(t, []string{"y"}, serviceIDs(slot.Services))
	})

	t.Run("filtered service loses the booked time", func(t *testing.T) {
		day := services.BuildDayAvailability(services.DayQuery{
			Date: monday, Location: time.UTC, Services: svcs, Appointments: booked,
			ServiceFilter: "x", OccupancyKnown: true,
		})
		slot, ok := day.FindSlot("09:30")
		require.True(t, ok)
		assert.False(t, slot.Available)
	})

	t.Run("all services view blocks the whole time", func(t *testing.T) {
		day := services.BuildDayAvailability(services.DayQuery{
			Date: monday, Location: time.UTC, Services: svcs, Appointments: booked,
			OccupancyKnown: true,
		})
		slot, ok := day.FindSlot("09:30")
		require.True(t, ok)
		assert.False(t, slot.Available)

		slot, ok = day.FindSlot("09:00")
		require.True(t, ok)
		assert.Equal(t, []string{"x", "y"}, serviceIDs(slot.Services))
	})
}

func TestBuildDayAvailability_OccupancyRespectsStatusAndDate(t *testing.T) {
	svcs := []entities.Service{service("x", 30, "20", window(entities.Monday, "09:00", "10:00"))}
	tests := []struct {
		name        string
		appointment entities.Appointment
		available   bool
	}{
		{"confirmed blocks", appointmentAt("x", monday.Add(9*time.Hour), entities.AppointmentStatusConfirmed), false},
		{"completed blocks", appointmentAt("x", monday.Add(9*time.Hour), entities.AppointmentStatusCompleted), false},
		{"cancelled releases", appointmentAt("x", monday.Add(9*time.Hour), entities.AppointmentStatusCancelled), true},
		{"no-show releases", appointmentAt("x", monday.Add(9*time.Hour), entities.AppointmentStatusNoShow), true},
		{"other day ignored", appointmentAt("x", monday.AddDate(0, 0, 7).Add(9*time.Hour), entities.AppointmentStatusConfirmed), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day := services.BuildDayAvailability(services.DayQuery{
				Date: monday, Location: time.UTC, Services: svcs, ServiceFilter: "x",
				Appointments:   []entities.Appointment{tt.appointment},
				OccupancyKnown: true,
			})
			slot, ok := day.FindSlot("09:00")
			require.True(t, ok)
			assert.Equal(t, tt.available, slot.Available)
		})
	}
}

func TestBuildDayAvailability_TimeOfDayUsesLocation(t *testing.T) {
	lagos := time.FixedZone("WAT", 60*60)
	date := time.Date(2025, 3, 3, 0, 0, 0, 0, lagos)
	// 09:00 UTC is 10:00 in Lagos
	booked := appointmentAt("x", time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), entities.AppointmentStatusConfirmed)

	day := services.BuildDayAvailability(services.DayQuery{
		Date: date, Location: lagos,
		Services:       []entities.Service{service("x", 30, "20", window(entities.Monday, "09:00", "11:00"))},
		Appointments:   []entities.Appointment{booked},
		ServiceFilter:  "x",
		OccupancyKnown: true,
	})

	nine, _ := day.FindSlot("09:00")
	ten, _ := day.FindSlot("10:00")
	assert.True(t, nine.Available)
	assert.False(t, ten.Available)
}

func TestBuildDayAvailability_UnknownOccupancyFailsOpen(t *testing.T) {
	day := services.BuildDayAvailability(services.DayQuery{
		Date:     monday,
		Location: time.UTC,
		Services: []entities.Service{service("x", 30, "20", window(entities.Monday, "09:00", "10:00"))},
		Appointments: []entities.Appointment{
			appointmentAt("x", monday.Add(9*time.Hour), entities.AppointmentStatusConfirmed),
		},
		OccupancyKnown: false,
	})

	assert.False(t, day.OccupancyKnown)
	for _, slot := range day.Slots {
		assert.True(t, slot.Available, slot.Time)
	}
}

func TestBuildDayAvailability_EmptyStates(t *testing.T) {
	t.Run("no service on weekday", func(t *testing.T) {
		day := services.BuildDayAvailability(services.DayQuery{
			Date:     monday,
			Services: []entities.Service{service("x", 30, "20", window(entities.Tuesday, "09:00", "10:00"))},
		})
		assert.Equal(t, services.AvailabilityNoServices, day.State)
		assert.Empty(t, day.Slots)
	})

	t.Run("every slot taken", func(t *testing.T) {
		day := services.BuildDayAvailability(services.DayQuery{
			Date:     monday,
			Services: []entities.Service{service("x", 30, "20", window(entities.Monday, "09:00", "09:30"))},
			Appointments: []entities.Appointment{
				appointmentAt("x", monday.Add(9*time.Hour), entities.AppointmentStatusConfirmed),
				appointmentAt("x", monday.Add(9*time.Hour+30*time.Minute), entities.AppointmentStatusPending),
			},
			OccupancyKnown: true,
		})
		assert.Equal(t, services.AvailabilityNoSlots, day.State)
		assert.Len(t, day.Slots, 2)
	})

	t.Run("invalid window yields no candidates", func(t *testing.T) {
		day := services.BuildDayAvailability(services.DayQuery{
			Date:     monday,
			Services: []entities.Service{service("x", 30, "20", window(entities.Monday, "12:00", "09:00"))},
		})
		assert.Equal(t, services.AvailabilityNoSlots, day.State)
		assert.Equal(t, []string{"x"}, day.InvalidServices)
	})
}

func TestBuildDayAvailability_OverlappingServicesShareATime(t *testing.T) {
	x := service("x", 30, "20.50", window(entities.Monday, "09:00", "10:00"))
	y := service("y", 45, "15", window(entities.Monday, "09:30", "10:30"))

	day := services.BuildDayAvailability(services.DayQuery{
		Date: monday, Location: time.UTC,
		Services:       []entities.Service{x, y},
		OccupancyKnown: true,
	})

	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, slotTimes(day.Slots))

	slot, ok := day.FindSlot("09:30")
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, serviceIDs(slot.Services))

	selection, err := services.SelectSlot(slot)
	require.NoError(t, err)
	require.NoError(t, selection.Select("x"))
	require.NoError(t, selection.Select("y"))

	assert.Equal(t, int(x.Duration+y.Duration), selection.Totals().DurationMinutes)
	assert.Equal(t, "35.5", selection.Totals().Price.String())
}

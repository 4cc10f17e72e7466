package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/zatekoja/slotbook/internal/domain/entities"
)

// SlotGranularity is the spacing between bookable times
const SlotGranularity = 30 * time.Minute

// ServiceFilterAll shows every service of the professional
const ServiceFilterAll = "all"

// AvailabilityState tells a day with slots apart from the two empty outcomes
type AvailabilityState string

const (
	AvailabilityOpen       AvailabilityState = "OPEN"
	AvailabilityNoServices AvailabilityState = "NO_SERVICES"
	AvailabilityNoSlots    AvailabilityState = "NO_SLOTS"
)

// DaySlot is one candidate time of a day and the services bookable at it
type DaySlot struct {
	Time      string             `json:"time"`
	Services  []entities.Service `json:"services"`
	Available bool               `json:"available"`
}

// DayQuery is everything needed to compute one day's availability
type DayQuery struct {
	Date          time.Time
	Location      *time.Location
	Services      []entities.Service
	Appointments  []entities.Appointment
	ServiceFilter string
	// OccupancyKnown is false when the appointments could not be fetched;
	// every generated slot is then reported as available.
	OccupancyKnown bool
}

// DayAvailability is the computed state of one day
type DayAvailability struct {
	Date           string            `json:"date"`
	Weekday        entities.Weekday  `json:"weekday"`
	State          AvailabilityState `json:"state"`
	Slots          []DaySlot         `json:"slots"`
	OccupancyKnown bool              `json:"occupancyKnown"`
	// InvalidServices lists services whose schedule entry for the day could not be expanded
	InvalidServices []string `json:"invalidServices,omitempty"`
}

// ExpandSchedule lists the times of entry's window at the given granularity.
// Both ends are included: the first time is the start and the last is the end,
// even when the window is not a multiple of granularity.
func ExpandSchedule(entry entities.ScheduleEntry, granularity time.Duration) ([]string, error) {
	if granularity < time.Minute {
		return nil, fmt.Errorf("slot granularity must be at least a minute, got %s", granularity)
	}
	start, end, err := entry.Bounds()
	if err != nil {
		return nil, err
	}

	step := entities.ClockTime(granularity / time.Minute)
	times := make([]string, 0, int((end-start)/step)+2)
	for t := start; t < end; t += step {
		times = append(times, t.String())
	}
	times = append(times, end.String())
	return times, nil
}

// ServicesForDay returns the services scheduled on day, restricted to filter
// unless it is empty or "all"
func ServicesForDay(services []entities.Service, day entities.Weekday, filter string) []entities.Service {
	var out []entities.Service
	for _, s := range services {
		if filter != "" && filter != ServiceFilterAll && s.ID != filter {
			continue
		}
		if _, ok := s.EntryFor(day); ok {
			out = append(out, s)
		}
	}
	return out
}

// BuildDayAvailability expands the day's services into candidate times and
// removes the ones taken by existing appointments
func BuildDayAvailability(q DayQuery) DayAvailability {
	loc := q.Location
	if loc == nil {
		loc = q.Date.Location()
	}
	date := q.Date.In(loc)
	day := entities.WeekdayOf(date)

	result := DayAvailability{
		Date:           date.Format(time.DateOnly),
		Weekday:        day,
		OccupancyKnown: q.OccupancyKnown,
		Slots:          []DaySlot{},
	}

	dayServices := ServicesForDay(q.Services, day, q.ServiceFilter)
	if len(dayServices) == 0 {
		result.State = AvailabilityNoServices
		return result
	}

	offered := make(map[string]map[string]bool, len(dayServices))
	seen := make(map[string]bool)
	var candidates []string
	for _, s := range dayServices {
		entry, _ := s.EntryFor(day)
		times, err := ExpandSchedule(entry, SlotGranularity)
		if err != nil {
			result.InvalidServices = append(result.InvalidServices, s.ID)
			continue
		}
		offered[s.ID] = make(map[string]bool, len(times))
		for _, t := range times {
			offered[s.ID][t] = true
			if !seen[t] {
				seen[t] = true
				candidates = append(candidates, t)
			}
		}
	}
	// "HH:MM" sorts chronologically
	sort.Strings(candidates)

	byService, anyService := occupancy(q.Appointments, date, loc)
	perService := q.ServiceFilter != "" && q.ServiceFilter != ServiceFilterAll

	open := 0
	for _, t := range candidates {
		slot := DaySlot{Time: t, Services: []entities.Service{}}
		blockedForAll := q.OccupancyKnown && !perService && anyService[t]
		for _, s := range dayServices {
			if !offered[s.ID][t] || blockedForAll {
				continue
			}
			if q.OccupancyKnown && perService && byService[s.ID][t] {
				continue
			}
			slot.Services = append(slot.Services, s)
		}
		slot.Available = len(slot.Services) > 0
		if slot.Available {
			open++
		}
		result.Slots = append(result.Slots, slot)
	}

	if open == 0 {
		result.State = AvailabilityNoSlots
	} else {
		result.State = AvailabilityOpen
	}
	return result
}

// occupancy indexes the start times taken on date, per service and overall
func occupancy(appointments []entities.Appointment, date time.Time, loc *time.Location) (map[string]map[string]bool, map[string]bool) {
	byService := make(map[string]map[string]bool)
	anyService := make(map[string]bool)
	y, m, d := date.Date()

	for _, a := range appointments {
		if !a.Status.OccupiesSlot() || a.StartTime.IsZero() {
			continue
		}
		start := a.StartTime.In(loc)
		if ay, am, ad := start.Date(); ay != y || am != m || ad != d {
			continue
		}
		t := entities.ClockTimeOf(start, loc).String()
		anyService[t] = true

		serviceID := a.ServiceID
		if serviceID == "" && a.Service != nil {
			serviceID = a.Service.ID
		}
		if byService[serviceID] == nil {
			byService[serviceID] = make(map[string]bool)
		}
		byService[serviceID][t] = true
	}
	return byService, anyService
}

// FindSlot returns the slot at time t
func (d DayAvailability) FindSlot(t string) (DaySlot, bool) {
	for _, s := range d.Slots {
		if s.Time == t {
			return s, true
		}
	}
	return DaySlot{}, false
}

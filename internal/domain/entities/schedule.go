package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is the day a schedule entry recurs on
type Weekday string

const (
	Sunday    Weekday = "SUNDAY"
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
)

// weekdays is indexed by time.Weekday
var weekdays = [...]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WeekdayOf maps a calendar date to its weekday in the date's own location
func WeekdayOf(date time.Time) Weekday {
	return weekdays[date.Weekday()]
}

// ParseWeekday accepts any letter case
func ParseWeekday(s string) (Weekday, error) {
	upper := Weekday(strings.ToUpper(strings.TrimSpace(s)))
	for _, d := range weekdays {
		if d == upper {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", s)
}

func (d *Weekday) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseWeekday(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ClockTime is a time of day in minutes since midnight
type ClockTime int

// ParseClockTime parses "HH:MM" (seconds, if present, are ignored)
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return ClockTime(h*60 + m), nil
}

// ClockTimeOf returns the time of day of t in loc
func ClockTimeOf(t time.Time, loc *time.Location) ClockTime {
	if loc != nil {
		t = t.In(loc)
	}
	return ClockTime(t.Hour()*60 + t.Minute())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On returns the instant at this time of day on date's calendar day in loc
func (c ClockTime) On(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = date.Location()
	}
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, int(c)/60, int(c)%60, 0, 0, loc)
}

// ScheduleEntry is a weekly recurring window during which a service can be booked
type ScheduleEntry struct {
	DayOfWeek Weekday `json:"dayOfWeek"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
}

// Bounds parses the window and enforces start < end
func (e ScheduleEntry) Bounds() (ClockTime, ClockTime, error) {
	start, err := ParseClockTime(e.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseClockTime(e.EndTime)
	if err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, fmt.Errorf("schedule window %s-%s must start before it ends", e.StartTime, e.EndTime)
	}
	return start, end, nil
}

// Validate checks the entry's window
func (e ScheduleEntry) Validate() error {
	_, _, err := e.Bounds()
	return err
}

package entities

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Service is something a professional can be booked for
type Service struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       Amount          `json:"price"`
	Duration    Minutes         `json:"duration"`
	CategoryID  string          `json:"categoryId,omitempty"`
	Schedule    []ScheduleEntry `json:"schedule"`
}

// EntryFor returns the schedule entry for day, if any. Only the first entry
// for a weekday is honored.
func (s Service) EntryFor(day Weekday) (ScheduleEntry, bool) {
	for _, entry := range s.Schedule {
		if entry.DayOfWeek == day {
			return entry, true
		}
	}
	return ScheduleEntry{}, false
}

// Minutes is a duration in minutes. The backend sends it as a number or as a
// string such as "30" or "30 min"; text without a leading number decodes as zero.
type Minutes int

func (m *Minutes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	var text string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	} else {
		text = string(data)
	}
	*m = Minutes(ParseMinutes(text))
	return nil
}

// ParseMinutes reads the leading integer of s, so "30 min" and "1.5" give 30
// and 1. It is zero when s does not start with a number.
func ParseMinutes(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// Amount is a decimal price transmitted as a string. The original text is kept
// so it round-trips unchanged.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*a = Amount(text)
		return nil
	}
	*a = Amount(data)
	return nil
}

// Decimal parses the amount, zero when it is not numeric
func (a Amount) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(string(a)))
	if err != nil {
		return decimal.Zero
	}
	return d
}

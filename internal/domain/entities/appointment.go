package entities

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending    AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed  AppointmentStatus = "CONFIRMED"
	AppointmentStatusInProgress AppointmentStatus = "IN_PROGRESS"
	AppointmentStatusCompleted  AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled  AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow     AppointmentStatus = "NO_SHOW"
)

var statusAliases = map[string]AppointmentStatus{
	"PENDING":     AppointmentStatusPending,
	"CONFIRMED":   AppointmentStatusConfirmed,
	"IN_PROGRESS": AppointmentStatusInProgress,
	"INPROGRESS":  AppointmentStatusInProgress,
	"COMPLETED":   AppointmentStatusCompleted,
	"CANCELLED":   AppointmentStatusCancelled,
	"CANCELED":    AppointmentStatusCancelled,
	"NO_SHOW":     AppointmentStatusNoShow,
	"NOSHOW":      AppointmentStatusNoShow,
}

// ParseAppointmentStatus normalizes the variants the backend emits
// ("in-progress", "In Progress", "no_show", "canceled") to the canonical value.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if status, ok := statusAliases[key]; ok {
		return status, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

// UnmarshalJSON normalizes known variants. A status the backend added later
// is kept verbatim so one odd row cannot fail a whole page; it still occupies
// its slot and allows no transition.
func (s *AppointmentStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if parsed, err := ParseAppointmentStatus(raw); err == nil {
		*s = parsed
	} else {
		*s = AppointmentStatus(strings.TrimSpace(raw))
	}
	return nil
}

// IsKnown reports whether s is one of the canonical statuses
func (s AppointmentStatus) IsKnown() bool {
	_, ok := knownStatuses[s]
	return ok
}

var knownStatuses = map[AppointmentStatus]struct{}{
	AppointmentStatusPending:    {},
	AppointmentStatusConfirmed:  {},
	AppointmentStatusInProgress: {},
	AppointmentStatusCompleted:  {},
	AppointmentStatusCancelled:  {},
	AppointmentStatusNoShow:     {},
}

// IsTerminal reports whether no further transition is allowed
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// OccupiesSlot reports whether an appointment in this status blocks its start time.
// Cancelled and no-show appointments release the slot.
func (s AppointmentStatus) OccupiesSlot() bool {
	return s != AppointmentStatusCancelled && s != AppointmentStatusNoShow
}

var transitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:    {AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusNoShow},
	AppointmentStatusConfirmed:  {AppointmentStatusInProgress, AppointmentStatusCancelled, AppointmentStatusNoShow},
	AppointmentStatusInProgress: {AppointmentStatusCompleted, AppointmentStatusCancelled},
}

// CanTransitionTo reports whether next is reachable from s in one step
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment is a booking of one service with one professional
type Appointment struct {
	ID             string            `json:"id"`
	ProfessionalID string            `json:"professionalId"`
	ServiceID      string            `json:"serviceId"`
	UserID         string            `json:"userId"`
	StartTime      time.Time         `json:"startTime"`
	EndTime        time.Time         `json:"endTime"`
	Status         AppointmentStatus `json:"status"`
	Notes          string            `json:"notes,omitempty"`
	Service        *Service          `json:"service,omitempty"`
	CreatedAt      time.Time         `json:"createdAt,omitempty"`
	UpdatedAt      time.Time         `json:"updatedAt,omitempty"`
}

// CanMarkNoShow reports whether the appointment may be flagged as a no-show at now
func (a Appointment) CanMarkNoShow(now time.Time) bool {
	return a.StartTime.Before(now) &&
		(a.Status == AppointmentStatusPending || a.Status == AppointmentStatusConfirmed)
}

// NewAppointment is the payload for POST /appointments
type NewAppointment struct {
	ProfessionalID string    `json:"professionalId"`
	ServiceID      string    `json:"serviceId"`
	UserID         string    `json:"userId,omitempty"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	Notes          string    `json:"notes,omitempty"`
}

// AppointmentQuery filters GET /appointments
type AppointmentQuery struct {
	ProfessionalID string
	UserID         string
	DateFrom       time.Time
	DateTo         time.Time
	Include        []string
	Page           int
	Limit          int
}

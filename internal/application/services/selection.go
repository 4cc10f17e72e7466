package services

import (
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zatekoja/slotbook/internal/domain/entities"
	apperrors "github.com/zatekoja/slotbook/pkg/errors"
)

// Totals is the combined duration and price of the selected services
type Totals struct {
	DurationMinutes int             `json:"durationMinutes"`
	Price           decimal.Decimal `json:"price"`
}

// SlotSelection pairs one chosen time with the services picked at it
type SlotSelection struct {
	Time     string
	services []entities.Service
	selected map[string]bool
}

// SelectSlot starts a selection at slot. A slot offering exactly one service
// selects it right away.
func SelectSlot(slot DaySlot) (*SlotSelection, error) {
	if !slot.Available || len(slot.Services) == 0 {
		return nil, apperrors.NewValidationError("slot " + slot.Time + " is not available")
	}
	sel := &SlotSelection{
		Time:     slot.Time,
		services: slot.Services,
		selected: make(map[string]bool, len(slot.Services)),
	}
	if len(slot.Services) == 1 {
		sel.selected[slot.Services[0].ID] = true
	}
	return sel, nil
}

// Toggle adds or removes a service and reports whether it is now selected
func (s *SlotSelection) Toggle(serviceID string) (bool, error) {
	if !s.offers(serviceID) {
		return false, apperrors.NewValidationError("service " + serviceID + " is not available at " + s.Time)
	}
	if s.selected[serviceID] {
		delete(s.selected, serviceID)
		return false, nil
	}
	s.selected[serviceID] = true
	return true, nil
}

// Select makes sure serviceID is part of the selection
func (s *SlotSelection) Select(serviceID string) error {
	if s.selected[serviceID] {
		return nil
	}
	_, err := s.Toggle(serviceID)
	return err
}

// SelectedIDs lists the selected services in the slot's order
func (s *SlotSelection) SelectedIDs() []string {
	ids := make([]string, 0, len(s.selected))
	for _, svc := range s.services {
		if s.selected[svc.ID] {
			ids = append(ids, svc.ID)
		}
	}
	return ids
}

// Selected returns the selected services in the slot's order
func (s *SlotSelection) Selected() []entities.Service {
	out := make([]entities.Service, 0, len(s.selected))
	for _, svc := range s.services {
		if s.selected[svc.ID] {
			out = append(out, svc)
		}
	}
	return out
}

// Totals sums duration and price over the selected services
func (s *SlotSelection) Totals() Totals {
	totals := Totals{Price: decimal.Zero}
	for _, svc := range s.Selected() {
		totals.DurationMinutes += int(svc.Duration)
		totals.Price = totals.Price.Add(svc.Price.Decimal())
	}
	return totals
}

// Confirm turns the selection into the target of the booking flow
func (s *SlotSelection) Confirm(professionalID string, date time.Time) (BookingTarget, error) {
	if strings.TrimSpace(professionalID) == "" {
		return BookingTarget{}, apperrors.NewValidationError("professional id is required")
	}
	ids := s.SelectedIDs()
	if len(ids) == 0 {
		return BookingTarget{}, apperrors.NewValidationError("select at least one service")
	}
	return BookingTarget{
		ServiceIDs:     ids,
		ProfessionalID: professionalID,
		Date:           date.Format(time.DateOnly),
		Time:           s.Time,
	}, nil
}

func (s *SlotSelection) offers(serviceID string) bool {
	for _, svc := range s.services {
		if svc.ID == serviceID {
			return true
		}
	}
	return false
}

// BookingTarget identifies what the booking flow should submit
type BookingTarget struct {
	ServiceIDs     []string `json:"serviceIds"`
	ProfessionalID string   `json:"professionalId"`
	Date           string   `json:"date"`
	Time           string   `json:"time"`
}

// Path encodes the target as the booking route
func (b BookingTarget) Path() string {
	escaped := make([]string, len(b.ServiceIDs))
	for i, id := range b.ServiceIDs {
		escaped[i] = url.QueryEscape(id)
	}
	return "/booking/" + url.PathEscape(b.ProfessionalID) +
		"?services=" + strings.Join(escaped, ",") +
		"&date=" + url.QueryEscape(b.Date) +
		"&time=" + url.QueryEscape(b.Time)
}

// StartIn resolves the target's date and time to an instant in loc
func (b BookingTarget) StartIn(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation(time.DateOnly+" 15:04", b.Date+" "+b.Time, loc)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("invalid booking date or time")
	}
	return start, nil
}

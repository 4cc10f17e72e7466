package providers

import (
	"context"

	"github.com/zatekoja/slotbook/internal/domain/entities"
)

// EventBus carries appointment changes to open slot pickers. Delivery is best
// effort: a subscriber that falls behind loses events, never blocks publishers.
type EventBus interface {
	Publish(ctx context.Context, channel string, event *entities.AppointmentEvent) error

	// Subscribe returns a stream that is closed when ctx ends or the bus closes
	Subscribe(ctx context.Context, channel string) (<-chan *entities.AppointmentEvent, error)

	Close() error
}

// EventChannelProfessionalPrefix starts every per-professional channel name
const EventChannelProfessionalPrefix = "professional:"

// GetProfessionalChannel names the channel carrying a professional's appointment changes
func GetProfessionalChannel(professionalID string) string {
	return EventChannelProfessionalPrefix + professionalID + ":appointments"
}

package events

import (
	"context"

	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/domain/providers"
)

// MemoryEventBus delivers events inside one process. It backs the event
// stream when Redis is not configured.
type MemoryEventBus struct {
	subscribers *fanout
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{subscribers: newFanout()}
}

var _ providers.EventBus = (*MemoryEventBus)(nil)

// Publish hands event to every current subscriber of channel without blocking
func (b *MemoryEventBus) Publish(_ context.Context, channel string, event *entities.AppointmentEvent) error {
	b.subscribers.broadcast(channel, event)
	return nil
}

// Subscribe returns a stream of channel's events that closes once ctx is done
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.AppointmentEvent, error) {
	eventChan, _, err := b.subscribers.add(channel)
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		b.subscribers.remove(channel, eventChan)
	}()
	return eventChan, nil
}

// Close closes every subscriber channel
func (b *MemoryEventBus) Close() error {
	b.subscribers.closeAll()
	return nil
}

// SubscriberCount returns the number of open subscriptions on channel
func (b *MemoryEventBus) SubscriberCount(channel string) int {
	return b.subscribers.count(channel)
}

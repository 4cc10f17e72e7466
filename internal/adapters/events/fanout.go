package events

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/slotbook/internal/domain/entities"
)

const subscriberBuffer = 100

var errBusClosed = errors.New("event bus closed")

// fanout tracks the local subscribers of each channel. Slow subscribers drop
// events rather than stall delivery to the others.
type fanout struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.AppointmentEvent]struct{}
	closed      bool
}

func newFanout() *fanout {
	return &fanout{subscribers: make(map[string]map[chan *entities.AppointmentEvent]struct{})}
}

// add registers a subscriber and returns the channel's subscriber count
func (f *fanout) add(channel string) (chan *entities.AppointmentEvent, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, 0, errBusClosed
	}

	set := f.subscribers[channel]
	if set == nil {
		set = make(map[chan *entities.AppointmentEvent]struct{})
		f.subscribers[channel] = set
	}
	ch := make(chan *entities.AppointmentEvent, subscriberBuffer)
	set[ch] = struct{}{}
	return ch, len(set), nil
}

// remove closes ch and reports how many subscribers remain on channel.
// removed is false when ch was already gone.
func (f *fanout) remove(channel string, ch chan *entities.AppointmentEvent) (remaining int, removed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	set := f.subscribers[channel]
	if _, ok := set[ch]; !ok {
		return len(set), false
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(f.subscribers, channel)
	}
	return len(set), true
}

func (f *fanout) broadcast(channel string, event *entities.AppointmentEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subscribers[channel] {
		select {
		case ch <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("Subscriber channel full, skipping event")
		}
	}
}

// closeChannel ends every subscription on channel
func (f *fanout) closeChannel(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropLocked(channel)
}

// closeAll ends every subscription and refuses new ones
func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	for channel := range f.subscribers {
		f.dropLocked(channel)
	}
}

func (f *fanout) dropLocked(channel string) {
	for ch := range f.subscribers[channel] {
		close(ch)
	}
	delete(f.subscribers, channel)
}

func (f *fanout) count(channel string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers[channel])
}

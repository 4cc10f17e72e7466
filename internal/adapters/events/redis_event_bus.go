package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/domain/providers"
	redisclient "github.com/zatekoja/slotbook/internal/infrastructure/clients/redis"
)

// RedisEventBus implements EventBus on Redis Pub/Sub so every BFF replica sees
// the bookings made through the others. Each channel holds one Redis
// subscription, shared by the local subscribers.
type RedisEventBus struct {
	client      *redisclient.Client
	subscribers *fanout

	// mu guards pubsubs and orders them against subscriber changes
	mu      sync.Mutex
	pubsubs map[string]*redis.PubSub

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) *RedisEventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:      client,
		subscribers: newFanout(),
		pubsubs:     make(map[string]*redis.PubSub),
		ctx:         ctx,
		cancel:      cancel,
	}
}

var _ providers.EventBus = (*RedisEventBus)(nil)

// Publish sends event to every replica subscribed to channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.AppointmentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Client().Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("event_id", event.ID).Msg("Published event")
	return nil
}

// Subscribe returns a stream of channel's events that closes once ctx is done
// or the bus closes
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.AppointmentEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx.Err() != nil {
		return nil, errBusClosed
	}

	if _, ok := b.pubsubs[channel]; !ok {
		pubsub := b.client.Client().Subscribe(b.ctx, channel)
		// Events published before the confirmation arrives would be lost
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		b.pubsubs[channel] = pubsub
		go b.relay(channel, pubsub)
	}

	eventChan, count, err := b.subscribers.add(channel)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("channel", channel).Int("subscribers", count).Msg("Subscribed to channel")

	go func() {
		<-ctx.Done()
		b.unsubscribe(channel, eventChan)
	}()
	return eventChan, nil
}

// relay decodes messages from one Redis subscription and fans them out
func (b *RedisEventBus) relay(channel string, pubsub *redis.PubSub) {
	defer func() {
		if err := b.closeChannel(channel, pubsub); err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("Failed to cleanup channel")
		}
	}()

	messages := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			event := new(entities.AppointmentEvent)
			if err := json.Unmarshal([]byte(msg.Payload), event); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("Failed to unmarshal event")
				continue
			}
			b.subscribers.broadcast(channel, event)
		}
	}
}

// unsubscribe drops one local subscriber and releases the Redis subscription
// with the last one
func (b *RedisEventBus) unsubscribe(channel string, eventChan chan *entities.AppointmentEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	remaining, removed := b.subscribers.remove(channel, eventChan)
	if !removed || remaining > 0 {
		return
	}
	if pubsub, ok := b.pubsubs[channel]; ok {
		delete(b.pubsubs, channel)
		_ = pubsub.Close()
	}
}

// closeChannel ends channel's subscriptions. A non-nil owner restricts this
// to the Redis subscription it started, so a relay that outlived its
// subscription leaves a newer one alone.
func (b *RedisEventBus) closeChannel(channel string, owner *redis.PubSub) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	pubsub, ok := b.pubsubs[channel]
	if owner != nil && pubsub != owner {
		return nil
	}
	b.subscribers.closeChannel(channel)
	if !ok {
		return nil
	}
	delete(b.pubsubs, channel)
	if err := pubsub.Close(); err != nil {
		return fmt.Errorf("failed to close subscription %s: %w", channel, err)
	}
	return nil
}

// Close ends every subscription and refuses new ones
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	channels := make([]string, 0, len(b.pubsubs))
	for channel := range b.pubsubs {
		channels = append(channels, channel)
	}
	b.mu.Unlock()

	var errs []error
	for _, channel := range channels {
		if err := b.closeChannel(channel, nil); err != nil {
			errs = append(errs, err)
		}
	}
	b.subscribers.closeAll()
	return errors.Join(errs...)
}

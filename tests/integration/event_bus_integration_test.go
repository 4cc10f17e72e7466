//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/slotbook/internal/adapters/events"
	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/domain/providers"
)

func waitForAppointmentEvent(t *testing.T, ch <-chan *entities.AppointmentEvent) *entities.AppointmentEvent {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return event
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	redisClient := requireRedis(t)

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.GetProfessionalChannel("it-" + uuid.NewString())
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)

	event := entities.NewAppointmentEvent(entities.AppointmentEventBooked, &entities.Appointment{
		ID:             "appt-1",
		ProfessionalID: "pro-1",
		Status:         entities.AppointmentStatusPending,
		StartTime:      time.Date(2030, 1, 7, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, eventBus.Publish(context.Background(), channel, event))

	received1 := waitForAppointmentEvent(t, sub1)
	received2 := waitForAppointmentEvent(t, sub2)

	assert.Equal(t, event.ID, received1.ID)
	assert.Equal(t, event.ID, received2.ID)
	assert.Equal(t, entities.AppointmentStatusPending, received1.Status)
	assert.True(t, event.StartTime.Equal(received1.StartTime))

	cancel1()
	_, ok := <-sub1
	assert.False(t, ok, "cancelled subscription is closed")
}

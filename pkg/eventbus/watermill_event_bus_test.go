package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/dailygate/pkg/eventbus"
	"github.com/dukex/dailygate/pkg/eventbus/gochannel"
	"github.com/dukex/dailygate/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	t.Parallel()

	bus := setupBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.LoginSucceeded, 1)

	err := bus.Handle(events.LoginSucceededEvent, func(_ context.Context, event any) error {
		login, ok := event.(*events.LoginSucceeded)
		require.True(t, ok)
		received <- login

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(ctx))

	err = bus.Publish(ctx, "admin", events.LoginSucceeded{
		BaseEvent: events.NewBaseEvent(events.LoginSucceededEvent),
		Identity:  "admin",
		ClientIP:  "10.0.0.1",
	})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, "admin", event.Identity)
		assert.Equal(t, "10.0.0.1", event.ClientIP)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_UnhandledTypesAreIgnored(t *testing.T) {
	t.Parallel()

	bus := setupBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	err := bus.Publish(ctx, "admin", events.CodeIssued{
		BaseEvent: events.NewBaseEvent(events.CodeIssuedEvent),
		Identity:  "admin",
		Date:      "2025-06-01",
	})
	assert.NoError(t, err)
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	t.Parallel()

	bus := setupBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

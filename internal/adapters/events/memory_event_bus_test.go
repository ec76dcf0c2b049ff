package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medly/scheduleconsole/internal/domain/entities"
	"github.com/medly/scheduleconsole/internal/domain/providers"
)

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := providers.GetSessionChannel("abc")
	events, err := bus.Subscribe(ctx, channel)
	require.NoError(t, err)

	query := entities.ScheduleQuery{Date: "2025-08-31", Range: entities.ScheduleRangeDay}
	require.NoError(t, bus.Publish(ctx, channel, entities.NewSyncEvent("abc", entities.SyncEventLoaded, query, 3)))
	require.NoError(t, bus.Publish(ctx, providers.GetSessionChannel("other"), entities.NewSyncEvent("other", entities.SyncEventLoaded, query, 1)))

	select {
	case ev := <-events:
		assert.Equal(t, entities.SyncEventLoaded, ev.EventType)
		assert.Equal(t, uint64(3), ev.Version)
		assert.Equal(t, "abc", ev.SessionID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %v", ev)
	default:
	}
}

func TestMemoryEventBus_ContextCancelClosesChannel(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := bus.Subscribe(ctx, "schedule:session:x")
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestMemoryEventBus_ClosedRejectsPublish(t *testing.T) {
	bus := NewMemoryEventBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(context.Background(), "c", &entities.SyncEvent{ID: "1"})
	assert.ErrorIs(t, err, ErrBusClosed)

	_, err = bus.Subscribe(context.Background(), "c")
	assert.ErrorIs(t, err, ErrBusClosed)
}

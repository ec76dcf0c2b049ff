package events

import (
	"context"
	"errors"
	"sync"

	"github.com/medly/scheduleconsole/internal/domain/entities"
	"github.com/medly/scheduleconsole/internal/domain/providers"
	"github.com/medly/scheduleconsole/internal/infrastructure/observability"
)

// ErrBusClosed is returned by operations on a closed MemoryEventBus
var ErrBusClosed = errors.New("event bus closed")

// MemoryEventBus is an in-process EventBus for single-instance deployments
type MemoryEventBus struct {
	subscribers map[string]map[chan *entities.SyncEvent]struct{}
	mu          sync.RWMutex
	closed      bool
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{
		subscribers: make(map[string]map[chan *entities.SyncEvent]struct{}),
	}
}

var _ providers.EventBus = (*MemoryEventBus)(nil)

// Publish delivers event to current subscribers without blocking
func (b *MemoryEventBus) Publish(_ context.Context, channel string, event *entities.SyncEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}
	for subscriber := range b.subscribers[channel] {
		select {
		case subscriber <- event:
		default:
			observability.GetLogger().Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber queue full, event skipped")
		}
	}
	return nil
}

// Subscribe subscribes to events on a channel until ctx is done
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SyncEvent, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.SyncEvent]struct{})
	}
	eventChan := make(chan *entities.SyncEvent, subscriberBuffer)
	b.subscribers[channel][eventChan] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.removeSubscriber(channel, eventChan)
	}()

	return eventChan, nil
}

func (b *MemoryEventBus) removeSubscriber(channel string, eventChan chan *entities.SyncEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, ok := b.subscribers[channel]
	if !ok {
		return
	}
	if _, ok := subscribers[eventChan]; !ok {
		return
	}
	delete(subscribers, eventChan)
	close(eventChan)
	if len(subscribers) == 0 {
		delete(b.subscribers, channel)
	}
}

// Unsubscribe drops every subscriber of a channel
func (b *MemoryEventBus) Unsubscribe(_ context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subscriber := range b.subscribers[channel] {
		close(subscriber)
	}
	delete(b.subscribers, channel)
	return nil
}

// Close closes every subscription
func (b *MemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for channel, subscribers := range b.subscribers {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}
	b.closed = true
	return nil
}

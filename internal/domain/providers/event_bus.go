package providers

import (
	"context"

	"github.com/medly/scheduleconsole/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to sync events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.SyncEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.SyncEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelSessionPrefix is the prefix for per-session schedule channels
const EventChannelSessionPrefix = "schedule:session:"

// GetSessionChannel returns the channel name for a console session
func GetSessionChannel(sessionID string) string {
	return EventChannelSessionPrefix + sessionID
}

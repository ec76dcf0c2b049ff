package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/medly/scheduleconsole/internal/domain/entities"
	"github.com/medly/scheduleconsole/internal/domain/providers"
	redisclient "github.com/medly/scheduleconsole/internal/infrastructure/clients/redis"
	"github.com/medly/scheduleconsole/internal/infrastructure/observability"
)

// subscriberBuffer is the per-subscriber queue depth; a full queue drops events
const subscriberBuffer = 32

// sessionPattern matches every console session channel
const sessionPattern = providers.EventChannelSessionPrefix + "*"

// RedisEventBus publishes sync events through Redis so that any console
// instance can stream a session's events. One pattern subscription per
// process receives all session channels and hands them to local subscribers.
type RedisEventBus struct {
	client *redis.Client
	local  *MemoryEventBus

	mu     sync.Mutex
	pubsub *redis.PubSub
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client.Client(),
		local:  NewMemoryEventBus(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Publish sends event to every instance subscribed to channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.SyncEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal sync event: %w", err)
	}
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish sync event: %w", err)
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("event_type", string(event.EventType)).
		Msg("published sync event")
	return nil
}

// Subscribe returns the events of a session channel until ctx is done
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SyncEvent, error) {
	if !strings.HasPrefix(channel, providers.EventChannelSessionPrefix) {
		return nil, fmt.Errorf("unsupported channel %q", channel)
	}
	if err := b.ensurePatternSubscription(); err != nil {
		return nil, err
	}
	return b.local.Subscribe(ctx, channel)
}

func (b *RedisEventBus) ensurePatternSubscription() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx.Err() != nil {
		return ErrBusClosed
	}
	if b.pubsub != nil {
		return nil
	}

	pubsub := b.client.PSubscribe(b.ctx, sessionPattern)
	// Receive waits for the subscription confirmation
	if _, err := pubsub.Receive(b.ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", sessionPattern, err)
	}
	b.pubsub = pubsub
	go b.dispatch(pubsub)

	observability.GetLogger().Debug().Str("pattern", sessionPattern).Msg("subscribed to session channels")
	return nil
}

func (b *RedisEventBus) dispatch(pubsub *redis.PubSub) {
	logger := observability.GetLogger()
	ch := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event entities.SyncEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed sync event")
				continue
			}
			if err := b.local.Publish(b.ctx, msg.Channel, &event); err != nil {
				return
			}
		}
	}
}

// Unsubscribe drops this instance's subscribers of a channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return b.local.Unsubscribe(ctx, channel)
}

// Close stops the pattern subscription and closes every local subscriber
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	b.cancel()
	pubsub := b.pubsub
	b.pubsub = nil
	b.mu.Unlock()

	var closeErr error
	if pubsub != nil {
		if err := pubsub.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close session subscription: %w", err)
		}
	}
	_ = b.local.Close()
	return closeErr
}

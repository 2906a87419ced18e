package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel is the Redis pub/sub channel shared by all instances
const Channel = "norgeskole:identity"

type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// RedisBus delivers locally and mirrors events to other instances through Redis
type RedisBus struct {
	local  *MemoryBus
	client *redis.Client
	origin string
	logger *zap.Logger
}

// NewRedisBus wraps a MemoryBus with Redis fan-out
func NewRedisBus(client *redis.Client, local *MemoryBus, logger *zap.Logger) *RedisBus {
	return &RedisBus{
		local:  local,
		client: client,
		origin: uuid.NewString(),
		logger: logger,
	}
}

// Publish delivers e locally, then broadcasts it to other instances
func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	if err := b.local.Publish(ctx, e); err != nil {
		return err
	}

	payload, err := json.Marshal(envelope{Origin: b.origin, Event: e})
	if err != nil {
		return fmt.Errorf("encode identity event: %w", err)
	}
	if err := b.client.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish identity event: %w", err)
	}
	return nil
}

// Subscribe registers interest in one identity's events
func (b *RedisBus) Subscribe(identityID string) (<-chan Event, func()) {
	return b.local.Subscribe(identityID)
}

// Run consumes events published by other instances until ctx is done
func (b *RedisBus) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, Channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}

	b.logger.Info("Listening for identity events", zap.String("channel", Channel))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Identity event listener stopped")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *RedisBus) handle(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Warn("Ignoring malformed identity event", zap.Error(err))
		return
	}
	if env.Origin == b.origin {
		return
	}
	b.local.deliver(env.Event)
}

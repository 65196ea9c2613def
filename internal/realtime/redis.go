package realtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBroker carries messages over Redis pub/sub so every server instance
// sees every publish.
type RedisBroker struct {
	client *redis.Client
	buffer int
}

func NewRedisBroker(client *redis.Client, buffer int) *RedisBroker {
	return &RedisBroker{client: client, buffer: buffer}
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", channel, err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channel)

	// Wait for confirmation that subscription is created
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	sub := newSubscription(channel, b.buffer, func() {
		_ = pubsub.Close()
	})

	ch := pubsub.Channel()
	go func() {
		for msg := range ch {
			sub.deliver(Message{Channel: msg.Channel, Payload: []byte(msg.Payload)})
		}
	}()

	sub.closeOn(ctx)
	return sub, nil
}

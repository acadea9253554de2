package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel name shared by all instances of
// one logical game.
const DefaultChannel = "stagequiz:state"

// Bus carries replication envelopes over Redis pub/sub. Redis pub/sub is
// at-most-once with no replay, which matches the replication contract:
// a patch missed while disconnected is simply never applied.
type Bus struct {
	client  *redis.Client
	channel string
}

func NewBus(client *redis.Client, channel string) *Bus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Bus{client: client, channel: channel}
}

func (b *Bus) Publish(ctx context.Context, payload []byte) error {
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *Bus) Subscribe(handler func(payload []byte)) (func(), error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := b.client.Subscribe(ctx, b.channel)

	// Confirm the subscription before returning so callers never miss
	// patches published right after Attach.
	if _, err := pubsub.Receive(ctx); err != nil {
		cancelCtx()
		_ = pubsub.Close()
		return nil, err
	}

	ch := pubsub.Channel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ch {
			handler([]byte(msg.Payload))
		}
	}()

	cancel := func() {
		cancelCtx()
		_ = pubsub.Close()
		<-done
	}
	return cancel, nil
}

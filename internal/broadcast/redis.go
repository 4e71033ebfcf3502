package broadcast

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/medidesk/dashboard/pkg/logging"
)

// RedisBus carries logout events over a Redis pub/sub channel so that
// dashboard instances in separate processes see each other's logouts.
type RedisBus struct {
	client  *redis.Client
	channel string
	logger  *logging.Logger
}

// NewRedisBus wraps an existing Redis client. channel is the well-known
// name shared by every instance of the app.
func NewRedisBus(client *redis.Client, channel string, logger *logging.Logger) *RedisBus {
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisBus{client: client, channel: channel, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, fn func(Event)) (func(), error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	go func() {
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn("broadcast: dropping malformed event", "error", err)
				continue
			}
			fn(ev)
		}
	}()
	return func() { _ = pubsub.Close() }, nil
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe/internal/entity"
)

type Subscriber struct {
	logger  *slog.Logger
	client  *redis.Client
	channel string
}

func NewSubscriber(logger *slog.Logger, client *redis.Client, channel string) *Subscriber {
	return &Subscriber{
		logger:  logger.With("component", "redis_subscriber", "channel", channel),
		client:  client,
		channel: channel,
	}
}

// Listen calls handle for every event on the channel until ctx is done.
// Messages that are not events are logged and skipped.
func (that *Subscriber) Listen(ctx context.Context, handle func(entity.Event)) error {
	pubsub := that.client.Subscribe(ctx, that.channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			that.logger.Error("could not close subscription", "error", err)
		}
	}()

	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}

		return fmt.Errorf("failed to subscribe to %s: %w", that.channel, err)
	}

	messages := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			var event entity.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				that.logger.Warn("skipping malformed event", "error", err)
				continue
			}

			handle(event)
		}
	}
}

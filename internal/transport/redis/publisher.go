package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe/internal/entity"
)

const defaultPublishTimeout = 2 * time.Second

// Publisher forwards match events to a Redis channel as JSON. It is meant to
// be subscribed to a match controller.
type Publisher struct {
	logger  *slog.Logger
	client  *redis.Client
	channel string
	timeout time.Duration
}

func NewPublisher(logger *slog.Logger, client *redis.Client, channel string, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	return &Publisher{
		logger:  logger.With("component", "redis_publisher", "channel", channel),
		client:  client,
		channel: channel,
		timeout: timeout,
	}
}

// HandleEvent publishes event. Failures are logged, the match goes on.
func (that *Publisher) HandleEvent(event entity.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), that.timeout)
	defer cancel()

	if err := that.Publish(ctx, event); err != nil {
		that.logger.Error("failed to publish event", "type", event.Type, "error", err)
	}
}

func (that *Publisher) Publish(ctx context.Context, event entity.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = that.client.Publish(ctx, that.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event in Redis: %w", err)
	}

	return nil
}

package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe/internal/bot"
	"github.com/rocketscienceinc/tictactoe/internal/config"
	"github.com/rocketscienceinc/tictactoe/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe/internal/transport/redis"
	"github.com/rocketscienceinc/tictactoe/transport/rest"
)

// RunApp - runs the HTTP match server until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Serve(ctx, logger, conf)
}

// Serve runs the HTTP match server until ctx is done.
func Serve(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	controller := tictactoe.NewController(logger, bot.NewPolicy(nil), tictactoe.WithBotDelay(conf.BotDelay))
	defer controller.Close()

	if conf.Redis.Enabled {
		redisAddrString := conf.Redis.GetRedisAddr()

		client, err := redis.Connect(ctx, redisAddrString)
		if err != nil {
			return fmt.Errorf("could not connect to redis: %w", err)
		}

		defer func() {
			if err = client.Close(); err != nil {
				log.Error("could not close redis client", "error", err)
			}
		}()

		controller.Subscribe(redis.NewPublisher(logger, client, conf.Redis.Channel, conf.Redis.PublishTimeout))
		log.Info("Publishing match events", "addr", redisAddrString, "channel", conf.Redis.Channel)
	}

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		httpErrCh <- rest.Start(ctx, conf.HTTPPort, rest.NewRouter(logger, controller))
	}()

	select {
	case err := <-httpErrCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		// wait for the graceful shutdown
		if err := <-httpErrCh; err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	}
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rocketscienceinc/tictactoe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe/internal/entity"
	"github.com/rocketscienceinc/tictactoe/internal/transport/redis"
)

func newWatchCmd(loadConfig configLoader) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print match events published to Redis",
		Long: `Subscribe to the configured Redis channel and print every match event
a server publishes.

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			if !conf.Redis.Enabled {
				return apperror.ErrRedisDisabled
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := redis.Connect(ctx, conf.Redis.GetRedisAddr())
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			out := cmd.OutOrStdout()
			if !jsonOutput {
				fmt.Fprintf(out, "Watching %s on %s\n", conf.Redis.Channel, conf.Redis.GetRedisAddr())
			}

			subscriber := redis.NewSubscriber(stderrLogger(conf), client, conf.Redis.Channel)

			return subscriber.Listen(ctx, func(event entity.Event) {
				printEvent(out, event, jsonOutput, time.Now())
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

func printEvent(out io.Writer, event entity.Event, jsonOutput bool, now time.Time) {
	if jsonOutput {
		data, _ := json.Marshal(event)
		fmt.Fprintln(out, string(data))
		return
	}

	line := fmt.Sprintf("[%s] %s", now.Format(time.DateTime), event.Type)
	if event.Cell != nil {
		line += fmt.Sprintf(" %s@%d", event.Mark, *event.Cell)
	}

	fmt.Fprintf(out, "%s: %s\n", line, event.State.Message())
}

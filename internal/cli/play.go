package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rocketscienceinc/tictactoe/internal/bot"
	"github.com/rocketscienceinc/tictactoe/internal/console"
	"github.com/rocketscienceinc/tictactoe/internal/tictactoe"
)

func newPlayCmd(loadConfig configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a match in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := stderrLogger(conf)
			controller := tictactoe.NewController(logger, bot.NewPolicy(nil), tictactoe.WithBotDelay(conf.BotDelay))
			defer controller.Close()

			term := console.New(cmd.OutOrStdout(), controller)
			controller.Subscribe(term)

			return term.Run(ctx, cmd.InOrStdin())
		},
	}

	return cmd
}

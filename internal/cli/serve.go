package cli

import (
	"os"

	"github.com/spf13/cobra"

	application "github.com/rocketscienceinc/tictactoe/internal"
)

func newServeCmd(loadConfig configLoader) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the match over HTTP",
		Long: `Serve the match as JSON over HTTP:

  GET  /match          current state
  POST /match/mode     {"mode":"pvp"} or {"mode":"bot"}
  POST /match/move     {"cell":0-8}
  POST /match/reset    restart the current mode
  POST /match/replay   back to mode selection

Events are published to Redis when redis.enabled is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			if port != "" {
				conf.HTTPPort = port
			}

			return application.RunApp(initLogger(conf, os.Stdout), conf)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port, overrides http-port")

	return cmd
}

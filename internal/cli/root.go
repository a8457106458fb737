package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rocketscienceinc/tictactoe/internal/config"
)

const defaultConfigPath = "./config.yml"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "tictactoe",
		Short: "Tic-tac-toe match server and console",
		Long: `tictactoe runs a single tic-tac-toe match against another human or the computer.

Serve it over HTTP, play it in the terminal, or watch the events a server
publishes to Redis.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Config file path")

	loadConfig := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	rootCmd.AddCommand(newServeCmd(loadConfig))
	rootCmd.AddCommand(newPlayCmd(loadConfig))
	rootCmd.AddCommand(newWatchCmd(loadConfig))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}

	return nil
}

type configLoader func() (*config.Config, error)

// initLogger builds the JSON logger at the configured level.
func initLogger(conf *config.Config, w io.Writer) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func stderrLogger(conf *config.Config) *slog.Logger {
	return initLogger(conf, os.Stderr)
}

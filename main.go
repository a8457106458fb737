package main

import (
	"fmt"
	"os"

	"github.com/rocketscienceinc/tictactoe/internal/cli"
)

// main - is the entry point of the application. Subcommands load the config and logger.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

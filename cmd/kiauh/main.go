// Package main is used for the kiauh command line tool.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/R3dM0nk3y360/kiauh/cli"
	"github.com/R3dM0nk3y360/kiauh/internal/tui"
)

func main() {
	// Prepare a logger.
	slog.SetDefault(slog.New(tui.NewHandler(os.Stderr, false)))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	app := cli.NewCommand(&cli.Args{SetLogger: true})

	// Run the main command and handle errors.
	err := app.ExecuteContext(ctx)
	if err != nil {
		slog.Error(err.Error())
		cancel()
		os.Exit(1)
	}
}

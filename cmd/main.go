package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/prune/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "prune",
		Usage:    "Review Spotify playlists track by track and remove what you no longer want",
		Version:  "0.3.0",
		Flags:    globalFlags(),
		Before:   runner.Before,
		After:    runner.After,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNoCredential):
			logger.Error("spotify is not connected; run `prune spotify connect` first", "error", err)
		case errors.Is(err, shared.ErrAuthFailed), errors.Is(err, shared.ErrMissingRefreshToken):
			logger.Error("spotify authorization expired; run `prune spotify connect` again", "error", err)
		default:
			logger.Errorf("application error: %v", err)
		}
		os.Exit(1)
	}
}

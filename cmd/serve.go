package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/prune/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	app, err := r.services()
	if err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	handler := server.NewRouter(server.Deps{
		Engine:       app.engine,
		Charts:       app.charts,
		Authorizer:   app.refresher,
		Credentials:  app.credentials,
		Sessions:     server.NewSessions(r.config.Server.SessionSecret, r.config.Server.SessionTTL()),
		States:       server.NewStateStore(server.DefaultStateTTL),
		Gatherer:     r.registry,
		Logger:       r.logger,
		CookieSecure: r.config.Server.CookieSecure,
	})

	if err := server.Serve(ctx, addr, handler, r.logger); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

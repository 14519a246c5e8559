package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/prune/internal/server"
	"github.com/desertthunder/prune/internal/shared"
	"github.com/desertthunder/prune/internal/tasks"
	"github.com/urfave/cli/v3"
)

const authTimeout = 2 * time.Minute

// SpotifyConnect performs the OAuth2 authorization code flow for --user.
//
// Starts a local HTTP server for the callback, opens the browser for consent, and stores the
// exchanged credential.
func (r *Runner) SpotifyConnect(ctx context.Context, cmd *cli.Command) error {
	spotifyCfg := r.config.Credentials.Spotify
	if spotifyCfg.ClientID == "" || spotifyCfg.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrInvalidArgument, r.configPath)
	}

	app, err := r.services()
	if err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	addr := r.config.Server.Addr()
	if u, err := url.Parse(r.redirectURI()); err == nil && u.Host != "" {
		addr = u.Host
	}

	handler := server.NewOAuthHandler(app.refresher, r.user, state)
	mux := http.NewServeMux()
	for _, route := range handler.Routes() {
		mux.Handle(route, handler)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", addr)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := app.refresher.AuthCodeURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Credential == nil {
		return fmt.Errorf("no credential received")
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("You can now use: prune spotify playlists --user %s\n", r.user)
	return nil
}

// SpotifyDisconnect deletes the stored credential of --user.
func (r *Runner) SpotifyDisconnect(ctx context.Context, cmd *cli.Command) error {
	app, err := r.services()
	if err != nil {
		return err
	}

	if err := app.credentials.Delete(ctx, r.user); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	r.writePlain("✓ Spotify disconnected for %s\n", r.user)
	return nil
}

// SpotifyProfile shows the connected account.
func (r *Runner) SpotifyProfile(ctx context.Context, cmd *cli.Command) error {
	app, err := r.services()
	if err != nil {
		return err
	}

	profile, err := app.engine.Profile(ctx, r.user)
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}
	return r.render(profile)
}

// SpotifyPlaylists lists the user's playlists.
func (r *Runner) SpotifyPlaylists(ctx context.Context, cmd *cli.Command) error {
	app, err := r.services()
	if err != nil {
		return err
	}

	r.logger.Debug("listing spotify playlists", "user", r.user)
	playlists, err := app.engine.Dashboard(ctx, r.user, "")
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}
	return r.render(playlists)
}

// SpotifyReview shows the review queue of --playlist.
func (r *Runner) SpotifyReview(ctx context.Context, cmd *cli.Command) error {
	app, err := r.services()
	if err != nil {
		return err
	}

	state, err := app.engine.Review(ctx, r.user, cmd.String("playlist"))
	if err != nil {
		return fmt.Errorf("failed to load review: %w", err)
	}
	return r.render(state)
}

// SpotifyDecisions lists the recorded verdicts of --playlist.
func (r *Runner) SpotifyDecisions(ctx context.Context, cmd *cli.Command) error {
	app, err := r.services()
	if err != nil {
		return err
	}

	decisions, err := app.engine.Decisions(ctx, r.user, cmd.String("playlist"))
	if err != nil {
		return fmt.Errorf("failed to list decisions: %w", err)
	}
	return r.render(decisions)
}

// SpotifyReconsider flips a removal back to kept.
func (r *Runner) SpotifyReconsider(ctx context.Context, cmd *cli.Command) error {
	app, err := r.services()
	if err != nil {
		return err
	}

	if err := app.engine.Reconsider(ctx, r.user, cmd.String("playlist"), cmd.String("track")); err != nil {
		return fmt.Errorf("failed to reconsider track: %w", err)
	}
	r.writePlain("✓ %s will be kept\n", cmd.String("track"))
	return nil
}

// SpotifyApply pushes removals to Spotify for --playlist, or for every playlist with --all.
func (r *Runner) SpotifyApply(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("playlist")
	all := cmd.Bool("all")

	switch {
	case playlistID == "" && !all:
		return fmt.Errorf("%w: --playlist or --all is required", shared.ErrMissingArgument)
	case playlistID != "" && all:
		return fmt.Errorf("%w: cannot specify both --playlist and --all", shared.ErrInvalidArgument)
	}

	app, err := r.services()
	if err != nil {
		return err
	}

	if !all {
		result, err := app.engine.Apply(ctx, r.user, playlistID, nil)
		if err != nil {
			return err
		}
		return r.render(result)
	}

	playlists, err := app.engine.Dashboard(ctx, r.user, "")
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	progress := make(chan tasks.ProgressUpdate, len(playlists))
	done := r.watchProgress(progress)
	result := app.engine.BulkApply(ctx, r.user, playlists, tasks.BulkApplyOpts{NumWorkers: int(cmd.Int("workers"))}, progress)
	close(progress)
	<-done

	if err := r.render(result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d playlists failed", result.Failed, len(result.Items))
	}
	return nil
}

// SpotifyReset forgets kept verdicts of --playlist.
func (r *Runner) SpotifyReset(ctx context.Context, cmd *cli.Command) error {
	app, err := r.services()
	if err != nil {
		return err
	}

	n, err := app.engine.ResetProgress(ctx, r.user, cmd.String("playlist"))
	if err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	r.writePlain("✓ Cleared %d kept %s\n", n, pluralize(int(n), "track", "tracks"))
	return nil
}

// SpotifyGeo reports market availability of --playlist.
func (r *Runner) SpotifyGeo(ctx context.Context, cmd *cli.Command) error {
	app, err := r.services()
	if err != nil {
		return err
	}

	geo, err := app.engine.Geo(ctx, r.user, cmd.String("playlist"))
	if err != nil {
		return err
	}
	return r.render(geo)
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

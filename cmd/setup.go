package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/prune/internal/formatter"
	"github.com/desertthunder/prune/internal/server"
	"github.com/desertthunder/prune/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when missing, replaces a placeholder session secret, and runs
// database migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
		r.config = config
	}

	if secret := r.config.Server.SessionSecret; secret == "" || secret == shared.PlaceholderSecret {
		generated, err := shared.GenerateState()
		if err != nil {
			return err
		}
		r.config.Server.SessionSecret = generated

		if err := shared.SaveConfig(configPath, r.config); err != nil {
			return fmt.Errorf("failed to save session secret: %w", err)
		}
		r.logger.Info("generated session secret", "path", configPath)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	if _, err := r.database(); err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Setup complete\n")
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret in %s\n", configPath)
	r.writePlain("2. Register %s as a redirect URI in the Spotify dashboard\n", r.redirectURI())
	r.writePlain("3. Run 'prune spotify connect' to authorize\n")
	return nil
}

// Session prints a signed session token for --user.
func (r *Runner) Session(ctx context.Context, cmd *cli.Command) error {
	if secret := r.config.Server.SessionSecret; secret == "" || secret == shared.PlaceholderSecret {
		return fmt.Errorf("%w: server session_secret is not set (run prune setup)", shared.ErrInvalidConfig)
	}

	ttl := r.config.Server.SessionTTL()
	token, err := server.NewSessions(r.config.Server.SessionSecret, ttl).Issue(r.user)
	if err != nil {
		return fmt.Errorf("failed to issue session: %w", err)
	}

	if r.format == formatter.JSON {
		return r.writeJSON(map[string]any{
			"user":       r.user,
			"token":      token,
			"expires_in": int(ttl.Seconds()),
		}, true)
	}

	r.writePlain("%s\n", token)
	return nil
}

// redirectURI is where Spotify sends the browser after consent.
func (r *Runner) redirectURI() string {
	if uri := r.config.Credentials.Spotify.RedirectURI; uri != "" {
		return uri
	}
	return fmt.Sprintf("http://%s%s", r.config.Server.Addr(), server.CallbackPath)
}

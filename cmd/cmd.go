// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/prune/internal/formatter"
	"github.com/urfave/cli/v3"
)

const defaultUser = "local"

// globalFlags are inherited by every subcommand.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("PRUNE_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "Local user whose Spotify credential and decisions are used",
			Value:   defaultUser,
			Sources: cli.EnvVars("PRUNE_USER"),
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, markdown or json",
			Value:   string(formatter.Text),
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Override the configured log level (debug, info, warn, error)",
		},
	}
}

func playlistFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "playlist",
		Aliases:  []string{"p"},
		Usage:    "Spotify playlist ID",
		Required: true,
	}
}

// setupCommand initializes configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file if missing, generate a session secret, and run migrations",
		Action: r.Setup,
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API and Spotify OAuth routes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}

// sessionCommand mints session tokens for API clients.
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "session",
		Usage:  "Print a signed session token for --user",
		Action: r.Session,
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify account and playlist review operations",
		Commands: []*cli.Command{
			{
				Name:   "connect",
				Usage:  "Authorize prune with Spotify using OAuth2",
				Action: r.SpotifyConnect,
			},
			{
				Name:   "disconnect",
				Usage:  "Forget the stored Spotify credential",
				Action: r.SpotifyDisconnect,
			},
			{
				Name:   "profile",
				Usage:  "Show the connected Spotify account",
				Action: r.SpotifyProfile,
			},
			{
				Name:   "playlists",
				Usage:  "List Spotify playlists",
				Action: r.SpotifyPlaylists,
			},
			{
				Name:   "review",
				Usage:  "Show the review queue of a playlist",
				Flags:  []cli.Flag{playlistFlag()},
				Action: r.SpotifyReview,
			},
			{
				Name:   "decisions",
				Usage:  "List kept and removed tracks of a playlist",
				Flags:  []cli.Flag{playlistFlag()},
				Action: r.SpotifyDecisions,
			},
			{
				Name:  "reconsider",
				Usage: "Keep a track previously marked for removal",
				Flags: []cli.Flag{
					playlistFlag(),
					&cli.StringFlag{
						Name:     "track",
						Aliases:  []string{"t"},
						Usage:    "Spotify track URI",
						Required: true,
					},
				},
				Action: r.SpotifyReconsider,
			},
			{
				Name:  "apply",
				Usage: "Remove tracks marked for removal from Spotify",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "playlist",
						Aliases: []string{"p"},
						Usage:   "Spotify playlist ID",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Apply removals for every playlist",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Playlists applied concurrently with --all",
						Value: 3,
					},
				},
				Action: r.SpotifyApply,
			},
			{
				Name:   "reset",
				Usage:  "Forget kept tracks so they are reviewed again",
				Flags:  []cli.Flag{playlistFlag()},
				Action: r.SpotifyReset,
			},
			{
				Name:   "geo",
				Usage:  "Show where a playlist's tracks are available",
				Flags:  []cli.Flag{playlistFlag()},
				Action: r.SpotifyGeo,
			},
		},
	}
}

// chartsCommand handles chart discovery
func chartsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "charts",
		Usage: "Top artists from national charts",
		Commands: []*cli.Command{
			{
				Name:   "countries",
				Usage:  "List countries with a known chart playlist",
				Action: r.ChartCountries,
			},
			{
				Name:  "top",
				Usage: "Show the most charted artists in a country",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "country",
						Usage:    "ISO country code, or GLOBAL",
						Required: true,
					},
				},
				Action: r.ChartTop,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist review.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive review TUI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "File receiving logs while the TUI runs",
				Value: "prune-tui.log",
			},
		},
		Action: r.TUI,
	}
}

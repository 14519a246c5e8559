package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/prune/internal/charts"
	"github.com/desertthunder/prune/internal/formatter"
	"github.com/desertthunder/prune/internal/metrics"
	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/repositories"
	"github.com/desertthunder/prune/internal/services"
	"github.com/desertthunder/prune/internal/shared"
	"github.com/desertthunder/prune/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database and Spotify services are built on first use so commands like setup and session
// work without them.
type Runner struct {
	config      *shared.Config
	fixedConfig bool
	configPath  string
	user        string
	format      formatter.Format
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	db          *sql.DB
	ownsDB      bool
	registry    *prometheus.Registry
	app         *app
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config // used as-is instead of reading --config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB // used instead of opening database.path; never closed by the Runner
}

// app is the wired service graph shared by the commands.
type app struct {
	credentials models.CredentialStore
	refresher   *services.TokenRefresher
	spotify     *services.SpotifyService
	engine      *tasks.PlaylistEngine
	charts      *charts.Discovery
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	fixed := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Spotify.Timeout()}
	}

	return &Runner{
		config:      opts.Config,
		fixedConfig: fixed,
		configPath:  opts.ConfigPath,
		user:        defaultUser,
		format:      formatter.Text,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		db:          opts.DB,
		registry:    prometheus.NewRegistry(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, sessionCommand, spotifyCommand, chartsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before reads the global flags and loads the config file before any command runs.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return ctx, err
	}
	r.format = format

	if user := cmd.String("user"); user != "" {
		r.user = user
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if !r.fixedConfig {
		if cmd.IsSet("config") && cmd.Args().First() != "setup" {
			if _, err := os.Stat(r.configPath); err != nil {
				return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, r.configPath)
			}
		}

		config, err := shared.LoadOrDefault(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	level := r.config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	if err := shared.SetLogLevel(r.logger, level); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// After releases the database opened by the command, if any.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db != nil && r.ownsDB {
		r.ownsDB = false
		return r.db.Close()
	}
	return nil
}

// database returns the open database, opening and migrating database.path on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	r.db = db
	r.ownsDB = true
	return db, nil
}

// services wires the repositories, Spotify client, engine, and chart discovery.
func (r *Runner) services() (*app, error) {
	if r.app != nil {
		return r.app, nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector(r.registry)
	credentials := repositories.NewCredentialRepository(db)
	decisions := repositories.NewDecisionRepository(db)

	refresher := services.NewTokenRefresher(
		services.NewOAuthConfig(r.config.Credentials.Spotify, r.config.Spotify),
		credentials,
		services.RefresherOpts{HTTPClient: r.httpClient, Metrics: collector, Logger: r.logger},
	)

	client := services.NewClient(credentials, refresher, services.ClientOpts{
		BaseURL:    r.config.Spotify.BaseURL,
		HTTPClient: r.httpClient,
		Limiter:    services.NewLimiter(r.config.Spotify.RequestsPerSecond, r.config.Spotify.Burst),
		Metrics:    collector,
		Logger:     shared.WithLogger(r.logger, "component", "spotify"),
	})
	spotify := services.NewSpotifyService(client)

	r.app = &app{
		credentials: credentials,
		refresher:   refresher,
		spotify:     spotify,
		engine:      tasks.NewPlaylistEngine(spotify, decisions, tasks.EngineOpts{Metrics: collector, Logger: shared.WithLogger(r.logger, "component", "engine")}),
		charts: charts.NewDiscovery(
			spotify,
			charts.DefaultConfig().WithOverrides(r.config.Charts),
			charts.DiscoveryOpts{Metrics: collector, Logger: shared.WithLogger(r.logger, "component", "charts")},
		),
	}
	return r.app, nil
}

// render writes v in the --format selected for this invocation.
func (r *Runner) render(v any) error {
	return formatter.Write(r.output, r.format, v)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// watchProgress logs engine progress updates until the channel is closed.
func (r *Runner) watchProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()
	return done
}

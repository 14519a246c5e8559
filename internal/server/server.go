// package server serves the playlist review JSON API and the Spotify OAuth routes
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/prune/internal/metrics"
	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/shared"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Route paths for the Spotify authorization flow.
const (
	ConnectPath    = "/auth/spotify/connect"
	CallbackPath   = "/auth/spotify/callback"
	DisconnectPath = "/auth/spotify/disconnect"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows the paths it serves.
type Handler interface {
	http.Handler
	Routes() []string
}

// Deps are the collaborators of the HTTP server.
type Deps struct {
	Engine       Engine
	Charts       Charts
	Authorizer   Authorizer
	Credentials  models.CredentialStore
	Sessions     *Sessions
	States       *StateStore
	Gatherer     prometheus.Gatherer
	Logger       *log.Logger
	CookieSecure bool
}

// NewRouter builds the route tree.
//
// /healthz and /metrics are public. Everything else requires a session.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = shared.NewLogger(nil)
	}
	if deps.States == nil {
		deps.States = NewStateStore(DefaultStateTTL)
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	api := NewAPIHandler(deps.Engine, deps.Charts, deps.CookieSecure)
	auth := NewAuthHandler(deps.Authorizer, deps.States, deps.Credentials)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	r.Group(func(r chi.Router) {
		r.Use(deps.Sessions.Middleware)

		r.Get(ConnectPath, auth.Connect)
		r.Get(CallbackPath, auth.Callback)
		r.Post(DisconnectPath, auth.Disconnect)

		r.Route("/api", func(r chi.Router) {
			r.Get("/profile", api.Profile)

			r.Route("/playlists", func(r chi.Router) {
				r.Get("/", api.Dashboard)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", api.Playlist)
					r.Get("/tracks", api.Tracks)
					r.Get("/review", api.Review)
					r.Post("/reset", api.Reset)
					r.Get("/decisions", api.Decisions)
					r.Post("/apply", api.Apply)
					r.Get("/geo", api.Geo)
				})
			})

			r.Get("/tracks/{id}", api.Track)
			r.Post("/decisions", api.RecordDecision)
			r.Post("/decisions/reconsider", api.Reconsider)
			r.Post("/player/play", api.Play)

			r.Get("/charts", api.Chart)
			r.Get("/charts/countries", api.ChartCountries)
		})
	})

	return r
}

type loggerKey struct{}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// RequestLogger logs one line per request, at warn for 4xx and error for 5xx.
func RequestLogger(logger *log.Logger) Middleware {
	logger = shared.WithLogger(logger, "component", "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := logger.With("request_id", chimw.GetReqID(r.Context()))
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), loggerKey{}, l)))

			kv := []any{"method", r.Method, "path", r.URL.Path, "status", rec.statusCode, "duration", time.Since(start)}
			switch {
			case rec.statusCode >= 500:
				l.Error("http request", kv...)
			case rec.statusCode >= 400:
				l.Warn("http request", kv...)
			default:
				l.Info("http request", kv...)
			}
		})
	}
}

func loggerFrom(r *http.Request) *log.Logger {
	if l, ok := r.Context().Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// Serve runs handler on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

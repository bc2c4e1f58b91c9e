// package server contains middleware & handlers for the playlist web service
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/auth"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CORS, metrics, etc.
type Middleware func(http.Handler) http.Handler

// Route is one method and path pattern served by a [Handler].
type Route struct {
	Method     string
	Path       string
	Handler    http.Handler
	Middleware []Middleware
}

// Handler groups related routes, such as everything under /api/playlists.
type Handler interface {
	Routes() []Route // Routes returns the routes this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers all routes of a Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// PlaylistStore is the playlist persistence the HTTP layer needs.
type PlaylistStore interface {
	Create(ctx context.Context, playlist *models.Playlist) error
	Get(ctx context.Context, id string) (*models.Playlist, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Playlist, error)
	Update(ctx context.Context, playlist *models.Playlist) error
	Delete(ctx context.Context, id string) error
	AddSong(ctx context.Context, playlistID string, song models.Song) error
	RemoveSong(ctx context.Context, playlistID, songID string) error
}

// Deps are the collaborators a [Server] routes requests to.
//
// Tokens and Catalog may be nil when no Spotify credentials are configured; the Spotify routes then answer 503.
type Deps struct {
	Verifier  *auth.Verifier
	Accounts  *auth.Service
	Playlists PlaylistStore
	Tokens    services.TokenCache
	Catalog   services.Catalog
	Registry  *prometheus.Registry
	Logger    *log.Logger
}

// Server is the playlist HTTP API.
type Server struct {
	config  shared.ServerConfig
	router  *BasicRouter
	logger  *log.Logger
	metrics *Metrics
	handler http.Handler
}

// New wires every route of the API.
func New(config shared.ServerConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		config:  config,
		router:  NewBasicRouter(),
		logger:  logger,
		metrics: NewMetrics(registry, deps.Tokens),
	}

	authn := Authenticate(deps.Verifier, logger)

	s.router.Use(Recover(logger), s.metrics.Instrument, RequestLogger(logger))

	s.router.Handler(NewHealthHandler(registry))
	s.router.Handler(NewAuthHandler(deps.Accounts, authn, logger))
	s.router.Handler(NewPlaylistHandler(deps.Playlists, authn, logger))
	s.router.Handler(NewSpotifyHandler(deps.Tokens, deps.Catalog, authn, logger))

	s.handler = CORS(s.router)
	return s
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s,
		ReadTimeout:  s.config.ReadTimeout.Duration,
		WriteTimeout: s.config.WriteTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

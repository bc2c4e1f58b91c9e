package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/setlist/internal/auth"
	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/server"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
)

const exampleSecret = "change-me"

// Serve runs the HTTP API until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if port := cmd.Int("port"); port > 0 {
		config.Server.Port = port
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Auth.JWTSecret == exampleSecret {
		r.logger.Warn("using the example jwt secret, set SETLIST_JWT_SECRET")
	}

	db, err := r.openDatabase(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	deps, err := r.serverDeps(config, db)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(config.Server, deps).ListenAndServe(ctx)
}

// serverDeps wires repositories, auth and the optional Spotify clients for [server.New].
func (r *Runner) serverDeps(config *shared.Config, db *sql.DB) (server.Deps, error) {
	accounts, issuer, users := r.accounts(config, db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := server.Deps{
		Verifier:  auth.NewVerifier(issuer, users),
		Accounts:  accounts,
		Playlists: repositories.NewPlaylistRepository(db),
		Registry:  registry,
		Logger:    shared.WithLogger(r.logger, "component", "server"),
	}

	if !config.HasSpotifyCredentials() {
		r.logger.Warn("spotify credentials not configured, /api/spotify routes will answer 503")
		return deps, nil
	}

	broker, catalog, err := r.spotify(config)
	if err != nil {
		return server.Deps{}, fmt.Errorf("failed to configure spotify: %w", err)
	}
	deps.Tokens = broker
	deps.Catalog = catalog
	return deps, nil
}

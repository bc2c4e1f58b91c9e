package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/setlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// SpotifyToken performs a client-credentials exchange and prints the app token.
func (r *Runner) SpotifyToken(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	broker, _, err := r.spotify(config)
	if err != nil {
		return err
	}

	token, err := broker.Token(ctx)
	if err != nil {
		return err
	}

	return r.writeJSON(map[string]any{
		"access_token": token,
		"expires_in":   broker.RemainingValiditySeconds(),
	}, true)
}

// SpotifySearch searches the catalog for tracks matching the query argument.
func (r *Runner) SpotifySearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query is required", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	_, catalog, err := r.spotify(config)
	if err != nil {
		return err
	}

	r.logger.Infof("searching %v for %q", catalog.Name(), query)

	songs, err := catalog.Search(ctx, query)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d tracks:\n\n", len(songs))
	for i, s := range songs {
		r.writePlain("%d. %s - %s (%s)\n", i+1, s.Artist, s.Title, shared.FormatDuration(s.Duration))
		if s.Album != "" {
			r.writePlain("   Album: %s\n", s.Album)
		}
		r.writePlain("   URI: %s\n", s.URI)
	}

	return nil
}

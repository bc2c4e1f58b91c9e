package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlaylistList prints the playlists owned by the user with --email.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := repositories.NewUserRepository(db).GetByEmail(ctx, cmd.String("email"))
	if err != nil {
		return err
	}

	playlists, err := repositories.NewPlaylistRepository(db).ListByUser(ctx, user.ID())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		seconds := 0
		for _, s := range p.Songs() {
			seconds += s.Duration
		}

		r.writePlain("%d. %s\n", i+1, p.Name())
		if p.Description() != "" {
			r.writePlain("   Description: %s\n", p.Description())
		}
		r.writePlain("   ID: %s\n", p.ID())
		r.writePlain("   Tracks: %d (%s)\n\n", len(p.Songs()), shared.FormatDuration(seconds))
	}

	return nil
}

// PlaylistExport writes a playlist in the chosen format to --output or stdout.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	playlistID := cmd.String("id")
	if !shared.ValidID(playlistID) {
		return fmt.Errorf("%w: %q is not a playlist ID", shared.ErrInvalidArgument, playlistID)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	playlist, err := repositories.NewPlaylistRepository(db).Get(ctx, playlistID)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		return formatter.Export(r.output, playlist, format)
	}

	if err := formatter.WriteFile(output, playlist, format); err != nil {
		return err
	}

	r.logger.Infof("playlist exported to %v with %v tracks", output, len(playlist.Songs()))
	r.writePlain("✓ Playlist exported to %s\n", output)
	return nil
}

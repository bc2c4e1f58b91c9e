package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

const playlistColumns = `id, sequence, user_id, name, description, cover_image, created_at, updated_at, deleted_at`

// PlaylistRepository implements models.Repository[*models.Playlist].
//
// Songs live in playlist_songs keyed by (playlist_id, song_id) and are loaded with their playlist, ordered by position.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist with generated ID and sequence. Songs already on the playlist are stored too.
func (r *PlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(ctx, r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO playlists (id, sequence, user_id, name, description, cover_image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		id,
		sequence,
		playlist.UserID(),
		playlist.Name(),
		playlist.Description(),
		playlist.CoverImage(),
		playlist.CreatedAt(),
		playlist.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	for i, song := range playlist.Songs() {
		if err := insertSong(ctx, tx, id, i, song); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist: %w", err)
	}

	playlist.SetID(id)
	playlist.SetSequence(sequence)
	return nil
}

// Get retrieves a playlist and its songs by ID, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(ctx context.Context, id string) (*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE id = ? AND deleted_at IS NULL`

	playlist, err := scanPlaylist(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist: %w", err)
	}

	songs, err := r.songs(ctx, id)
	if err != nil {
		return nil, err
	}
	playlist.SetSongs(songs)

	return playlist, nil
}

// ListByUser returns a user's playlists, newest first, with their songs.
func (r *PlaylistRepository) ListByUser(ctx context.Context, userID string) ([]*models.Playlist, error) {
	return r.List(ctx, map[string]any{"user_id": userID})
}

// List retrieves all playlists matching the given criteria, newest first, excluding soft-deleted playlists.
//
// Supported criteria keys are "user_id" and "name".
func (r *PlaylistRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE deleted_at IS NULL`
	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name = ?"
		args = append(args, name)
	}

	query += " ORDER BY created_at DESC, sequence DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	// songs are loaded after the cursor is released so a single-connection pool cannot deadlock
	for _, playlist := range playlists {
		songs, err := r.songs(ctx, playlist.ID())
		if err != nil {
			return nil, err
		}
		playlist.SetSongs(songs)
	}

	return playlists, nil
}

// Update writes the playlist's name, description and cover image
func (r *PlaylistRepository) Update(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now().UTC()

	query := `
		UPDATE playlists
		SET name = ?, description = ?, cover_image = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		playlist.Name(),
		playlist.Description(),
		playlist.CoverImage(),
		now,
		playlist.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	if err := requireAffected(result, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, playlist.ID())); err != nil {
		return err
	}

	playlist.SetUpdatedAt(now)
	return nil
}

// Delete soft-deletes a playlist by ID
func (r *PlaylistRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE playlists SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	return requireAffected(result, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id))
}

// AddSong appends song to the end of the playlist.
//
// Returns an error wrapping [shared.ErrAlreadyExists] when the song ID is already present.
func (r *PlaylistRepository) AddSong(ctx context.Context, playlistID string, song models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := touchPlaylist(ctx, tx, playlistID); err != nil {
		return err
	}

	var position int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM playlist_songs WHERE playlist_id = ?`, playlistID,
	).Scan(&position)
	if err != nil {
		return fmt.Errorf("failed to read song position: %w", err)
	}

	if err := insertSong(ctx, tx, playlistID, position, song); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit song: %w", err)
	}
	return nil
}

// RemoveSong removes a song from the playlist. Removing a song that is not present is not an error.
func (r *PlaylistRepository) RemoveSong(ctx context.Context, playlistID, songID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := touchPlaylist(ctx, tx, playlistID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id = ?`, playlistID, songID)
	if err != nil {
		return fmt.Errorf("failed to remove song: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit song removal: %w", err)
	}
	return nil
}

func (r *PlaylistRepository) songs(ctx context.Context, playlistID string) ([]models.Song, error) {
	query := `
		SELECT song_id, title, artist, album, album_cover, duration, uri
		FROM playlist_songs
		WHERE playlist_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		var s models.Song
		if err := rows.Scan(&s.ID, &s.Title, &s.Artist, &s.Album, &s.AlbumCover, &s.Duration, &s.URI); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

// touchPlaylist bumps updated_at and fails with not found for missing or deleted playlists.
func touchPlaylist(ctx context.Context, tx *sql.Tx, playlistID string) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE playlists SET updated_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now().UTC(), playlistID,
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, playlistID))
}

func insertSong(ctx context.Context, tx *sql.Tx, playlistID string, position int, song models.Song) error {
	query := `
		INSERT INTO playlist_songs (playlist_id, position, song_id, title, artist, album, album_cover, duration, uri)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.ExecContext(ctx, query,
		playlistID, position, song.ID, song.Title, song.Artist, song.Album, song.AlbumCover, song.Duration, song.URI,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: song %s", shared.ErrAlreadyExists, song.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}
	return nil
}

func scanPlaylist(s scanner) (*models.Playlist, error) {
	var (
		id          string
		sequence    int
		userID      string
		name        string
		description string
		coverImage  string
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	if err := s.Scan(&id, &sequence, &userID, &name, &description, &coverImage, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	playlist := models.NewPlaylist(sequence, userID, name, description)
	playlist.SetID(id)
	playlist.SetCoverImage(coverImage)
	playlist.SetCreatedAt(createdAt)
	playlist.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		playlist.SetDeletedAt(&deletedAt.Time)
	}
	return playlist, nil
}

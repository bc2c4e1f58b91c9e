package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// DefaultCoverImage is used for playlists created without a cover.
const DefaultCoverImage = "https://images.unsplash.com/photo-1511671782779-c97d3d27a1d4?q=80&w=300&auto=format&fit=crop"

// Playlist is a user-curated, ordered list of songs owned by exactly one user.
type Playlist struct {
	record
	userID      string
	name        string
	description string
	coverImage  string
	songs       []Song
}

// NewPlaylist creates a Playlist owned by userID with the default cover image.
func NewPlaylist(sequence int, userID, name, description string) *Playlist {
	return &Playlist{
		record:      newRecord(sequence),
		userID:      userID,
		name:        strings.TrimSpace(name),
		description: strings.TrimSpace(description),
		coverImage:  DefaultCoverImage,
	}
}

func (p *Playlist) UserID() string      { return p.userID }
func (p *Playlist) Name() string        { return p.name }
func (p *Playlist) Description() string { return p.description }
func (p *Playlist) CoverImage() string  { return p.coverImage }
func (p *Playlist) Songs() []Song       { return p.songs }

func (p *Playlist) SetName(name string)               { p.name = strings.TrimSpace(name) }
func (p *Playlist) SetDescription(description string) { p.description = strings.TrimSpace(description) }
func (p *Playlist) SetCoverImage(url string)          { p.coverImage = url }
func (p *Playlist) SetSongs(songs []Song)             { p.songs = songs }

// HasSong reports whether a song with the given catalog ID is already in the playlist.
func (p *Playlist) HasSong(songID string) bool {
	return slices.ContainsFunc(p.songs, func(s Song) bool { return s.ID == songID })
}

// AddSong appends song unless a song with the same ID is present; it reports whether it was added.
func (p *Playlist) AddSong(song Song) bool {
	if p.HasSong(song.ID) {
		return false
	}
	p.songs = append(p.songs, song)
	return true
}

// RemoveSong drops every song with the given ID; it reports whether anything was removed.
func (p *Playlist) RemoveSong(songID string) bool {
	before := len(p.songs)
	p.songs = slices.DeleteFunc(p.songs, func(s Song) bool { return s.ID == songID })
	return len(p.songs) != before
}

// Validate implements [Model].
func (p *Playlist) Validate() error {
	if p.userID == "" {
		return fmt.Errorf("playlist owner is required")
	}
	if p.name == "" {
		return fmt.Errorf("playlist name is required")
	}
	return nil
}

type playlistJSON struct {
	MongoID     string    `json:"_id"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CoverImage  string    `json:"coverImage"`
	User        string    `json:"user"`
	Songs       []Song    `json:"songs"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MarshalJSON renders the playlist in the shape the web client reads; "_id" mirrors "id".
func (p *Playlist) MarshalJSON() ([]byte, error) {
	songs := p.songs
	if songs == nil {
		songs = []Song{}
	}
	return json.Marshal(playlistJSON{
		MongoID:     p.ID(),
		ID:          p.ID(),
		Name:        p.name,
		Description: p.description,
		CoverImage:  p.coverImage,
		User:        p.userID,
		Songs:       songs,
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	})
}

package models

import "fmt"

// Song is a flattened catalog track as stored inside a playlist and returned by search.
type Song struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	AlbumCover string `json:"albumCover"`
	Duration   int    `json:"duration"`
	URI        string `json:"uri"`
}

// Validate checks the fields a stored song cannot be without.
func (s Song) Validate() error {
	switch {
	case s.ID == "":
		return fmt.Errorf("song id is required")
	case s.Title == "":
		return fmt.Errorf("song title is required")
	case s.Artist == "":
		return fmt.Errorf("song artist is required")
	case s.URI == "":
		return fmt.Errorf("song uri is required")
	}
	return nil
}

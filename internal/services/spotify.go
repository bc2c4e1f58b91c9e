// Spotify Web API catalog access with an app token from [TokenBroker]
//
// Response types follow https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

const defaultTimeout = 10 * time.Second

// SearchLimit caps the number of tracks one search returns.
const SearchLimit = 20

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyTrack represents a Spotify track object.
//
// The web client posts this same shape when adding a song to a playlist.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      *SpotifyAlbum   `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// Complete reports whether the track has every field a stored song needs.
func (t SpotifyTrack) Complete() bool {
	return t.ID != "" &&
		t.Name != "" &&
		t.URI != "" &&
		t.DurationMS > 0 &&
		t.Album != nil &&
		len(t.Artists) > 0 && t.Artists[0].Name != ""
}

// Song flattens the track. Artist is the first credited artist, AlbumCover the first image,
// and Duration is rounded to whole seconds.
func (t SpotifyTrack) Song() models.Song {
	song := models.Song{
		ID:       t.ID,
		Title:    t.Name,
		Duration: int(math.Round(float64(t.DurationMS) / 1000)),
		URI:      t.URI,
	}
	if len(t.Artists) > 0 {
		song.Artist = t.Artists[0].Name
	}
	if t.Album != nil {
		song.Album = t.Album.Name
		if len(t.Album.Images) > 0 {
			song.AlbumCover = t.Album.Images[0].URL
		}
	}
	return song
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// AccessTokenSource supplies the bearer token for catalog calls. [*TokenBroker] implements it.
type AccessTokenSource interface {
	Token(ctx context.Context) (string, error)
}

// SpotifyCatalog searches and fetches tracks from the Spotify Web API.
type SpotifyCatalog struct {
	tokens     AccessTokenSource
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyCatalog creates a catalog client against cfg.APIURL using tokens for authorization.
func NewSpotifyCatalog(cfg shared.SpotifyConfig, tokens AccessTokenSource, client *http.Client) *SpotifyCatalog {
	if client == nil {
		timeout := cfg.Timeout.Duration
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &SpotifyCatalog{
		tokens:     tokens,
		httpClient: client,
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
	}
}

func (s *SpotifyCatalog) Name() string {
	return "Spotify"
}

// Search returns up to [SearchLimit] tracks matching query, flattened to [models.Song].
func (s *SpotifyCatalog) Search(ctx context.Context, query string) ([]models.Song, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(SearchLimit))

	var response searchResponse
	if err := s.doRequest(ctx, "/search?"+params.Encode(), &response); err != nil {
		return nil, err
	}

	songs := make([]models.Song, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		songs = append(songs, item.Song())
	}
	return songs, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyCatalog) Track(ctx context.Context, trackID string) (*models.Song, error) {
	if strings.TrimSpace(trackID) == "" {
		return nil, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	var track SpotifyTrack
	if err := s.doRequest(ctx, "/tracks/"+url.PathEscape(trackID), &track); err != nil {
		return nil, err
	}

	song := track.Song()
	return &song, nil
}

// doRequest performs an authenticated GET against the Spotify API and decodes the JSON body into result.
func (s *SpotifyCatalog) doRequest(ctx context.Context, endpoint string, result any) error {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %w", shared.ErrCatalogRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: spotify %s", shared.ErrNotFound, endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrCatalogRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", shared.ErrCatalogRequest, err)
	}

	return nil
}

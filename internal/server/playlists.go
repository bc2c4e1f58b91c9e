package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/auth"
	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
)

const (
	msgPlaylistNotFound = "Playlist not found"
	msgNameRequired     = "Name is required"
	msgInvalidSong      = "Invalid song data"
	msgSongExists       = "Song already exists in playlist"
)

// PlaylistHandler serves the owner-scoped playlist API. Every route requires authentication.
type PlaylistHandler struct {
	store  PlaylistStore
	authn  Middleware
	logger *log.Logger
}

func NewPlaylistHandler(store PlaylistStore, authn Middleware, logger *log.Logger) *PlaylistHandler {
	return &PlaylistHandler{store: store, authn: authn, logger: logger}
}

func (h *PlaylistHandler) Routes() []Route {
	authed := []Middleware{h.authn}
	return []Route{
		{Method: http.MethodGet, Path: "/api/playlists", Handler: http.HandlerFunc(h.list), Middleware: authed},
		{Method: http.MethodPost, Path: "/api/playlists", Handler: http.HandlerFunc(h.create), Middleware: authed},
		{Method: http.MethodGet, Path: "/api/playlists/{id}", Handler: http.HandlerFunc(h.get), Middleware: authed},
		{Method: http.MethodPut, Path: "/api/playlists/{id}", Handler: http.HandlerFunc(h.update), Middleware: authed},
		{Method: http.MethodDelete, Path: "/api/playlists/{id}", Handler: http.HandlerFunc(h.delete), Middleware: authed},
		{Method: http.MethodPost, Path: "/api/playlists/{id}/songs", Handler: http.HandlerFunc(h.addSong), Middleware: authed},
		{Method: http.MethodDelete, Path: "/api/playlists/{id}/songs/{songId}", Handler: http.HandlerFunc(h.removeSong), Middleware: authed},
		{Method: http.MethodGet, Path: "/api/playlists/{id}/export", Handler: http.HandlerFunc(h.export), Middleware: authed},
	}
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// updatePlaylistRequest uses pointers to tell an absent description from an empty one.
type updatePlaylistRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *PlaylistHandler) list(w http.ResponseWriter, r *http.Request) {
	principal := mustPrincipal(r)

	playlists, err := h.store.ListByUser(r.Context(), principal.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if playlists == nil {
		playlists = []*models.Playlist{}
	}
	writeJSON(w, http.StatusOK, playlists)
}

func (h *PlaylistHandler) create(w http.ResponseWriter, r *http.Request) {
	principal := mustPrincipal(r)

	var req createPlaylistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, h.logger, auth.Invalid(msgNameRequired, auth.FieldError{Field: "name", Message: msgNameRequired}))
		return
	}

	playlist := models.NewPlaylist(0, principal.ID, req.Name, req.Description)
	if err := h.store.Create(r.Context(), playlist); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, playlist)
}

func (h *PlaylistHandler) get(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.loadOwned(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (h *PlaylistHandler) update(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.loadOwned(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req updatePlaylistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		playlist.SetName(*req.Name)
	}
	if req.Description != nil {
		playlist.SetDescription(*req.Description)
	}

	if err := h.store.Update(r.Context(), playlist); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (h *PlaylistHandler) delete(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.loadOwned(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.store.Delete(r.Context(), playlist.ID()); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Playlist deleted")
}

func (h *PlaylistHandler) addSong(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.loadOwned(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var track services.SpotifyTrack
	if err := decodeJSON(w, r, &track); err != nil || !track.Complete() {
		writeError(w, r, h.logger, auth.Invalid(msgInvalidSong))
		return
	}

	song := track.Song()
	if playlist.HasSong(song.ID) {
		writeError(w, r, h.logger, auth.Invalid(msgSongExists))
		return
	}

	err = h.store.AddSong(r.Context(), playlist.ID(), song)
	if errors.Is(err, shared.ErrAlreadyExists) {
		writeError(w, r, h.logger, auth.Invalid(msgSongExists))
		return
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.respondReloaded(w, r, playlist.ID())
}

func (h *PlaylistHandler) removeSong(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.loadOwned(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.store.RemoveSong(r.Context(), playlist.ID(), r.PathValue("songId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.respondReloaded(w, r, playlist.ID())
}

func (h *PlaylistHandler) export(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.loadOwned(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	format, err := formatter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, h.logger, auth.Invalid(err.Error()))
		return
	}

	var buf bytes.Buffer
	if err := formatter.Export(&buf, playlist, format); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(playlist)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// loadOwned resolves the {id} path value to a playlist the caller owns.
//
// Malformed and unknown IDs are both not found; ownership is checked only after the lookup succeeds.
func (h *PlaylistHandler) loadOwned(r *http.Request) (*models.Playlist, error) {
	id := r.PathValue("id")
	if !shared.ValidID(id) {
		return nil, auth.NotFound(msgPlaylistNotFound)
	}

	playlist, err := h.store.Get(r.Context(), id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, auth.NotFound(msgPlaylistNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := auth.CheckOwnership(playlist.UserID(), mustPrincipal(r)); err != nil {
		return nil, err
	}
	return playlist, nil
}

func (h *PlaylistHandler) respondReloaded(w http.ResponseWriter, r *http.Request, id string) {
	playlist, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// mustPrincipal reads the principal [Authenticate] attached. It is nil only if a route forgot the middleware.
func mustPrincipal(r *http.Request) *models.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}

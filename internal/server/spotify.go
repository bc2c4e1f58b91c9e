package server

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/auth"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
)

const msgQueryRequired = "Query parameter is required"

// SpotifyHandler exposes the app token and catalog lookups to authenticated users.
type SpotifyHandler struct {
	tokens  services.TokenCache
	catalog services.Catalog
	authn   Middleware
	logger  *log.Logger
}

func NewSpotifyHandler(tokens services.TokenCache, catalog services.Catalog, authn Middleware, logger *log.Logger) *SpotifyHandler {
	return &SpotifyHandler{tokens: tokens, catalog: catalog, authn: authn, logger: logger}
}

func (h *SpotifyHandler) Routes() []Route {
	authed := []Middleware{h.authn}
	return []Route{
		{Method: http.MethodGet, Path: "/api/spotify/token", Handler: http.HandlerFunc(h.token), Middleware: authed},
		{Method: http.MethodGet, Path: "/api/spotify/search", Handler: http.HandlerFunc(h.search), Middleware: authed},
		{Method: http.MethodGet, Path: "/api/spotify/track/{id}", Handler: http.HandlerFunc(h.track), Middleware: authed},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (h *SpotifyHandler) token(w http.ResponseWriter, r *http.Request) {
	if h.tokens == nil {
		writeError(w, r, h.logger, shared.ErrServiceUnavailable)
		return
	}

	token, err := h.tokens.Token(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, ExpiresIn: h.tokens.RemainingValiditySeconds()})
}

func (h *SpotifyHandler) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, r, h.logger, auth.Invalid(msgQueryRequired))
		return
	}
	if h.catalog == nil {
		writeError(w, r, h.logger, shared.ErrServiceUnavailable)
		return
	}

	songs, err := h.catalog.Search(r.Context(), query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, songs)
}

func (h *SpotifyHandler) track(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeError(w, r, h.logger, shared.ErrServiceUnavailable)
		return
	}

	song, err := h.catalog.Track(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, song)
}

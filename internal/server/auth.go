package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/auth"
)

// AuthHandler serves registration, login and the current-user endpoint.
type AuthHandler struct {
	accounts *auth.Service
	authn    Middleware
	logger   *log.Logger
}

func NewAuthHandler(accounts *auth.Service, authn Middleware, logger *log.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, authn: authn, logger: logger}
}

func (h *AuthHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodPost, Path: "/api/auth/register", Handler: http.HandlerFunc(h.register)},
		{Method: http.MethodPost, Path: "/api/auth/login", Handler: http.HandlerFunc(h.login)},
		{Method: http.MethodGet, Path: "/api/auth/me", Handler: http.HandlerFunc(h.me), Middleware: []Middleware{h.authn}},
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	session, err := h.accounts.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user registered", "user", session.User.ID)
	writeJSON(w, http.StatusCreated, session)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	session, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	principal, err := h.accounts.Me(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, principal)
}

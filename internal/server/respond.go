package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/auth"
	"github.com/desertthunder/setlist/internal/shared"
)

const (
	msgUnauthenticated = "Authentication required"
	msgForbidden       = "Not authorized to access this resource"
	msgNotFound        = "Not found"
	msgBadRequest      = "Invalid request"
	msgUpstream        = "Upstream service error"
	msgUnavailable     = "Service unavailable"
	msgServerError     = "Server error"
	maxBodyBytes       = 1 << 20
)

type messageResponse struct {
	Message string            `json:"message"`
	Errors  []auth.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// writeError maps err to a status code and a client-safe message.
//
// Internal causes are logged, never written to the response.
func writeError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	status, body := classify(err)

	kv := []any{"method", r.Method, "path", r.URL.Path, "status", status, "err", err}
	if cause := errors.Unwrap(err); cause != nil {
		kv = append(kv, "cause", cause)
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", kv...)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		logger.Warn("request rejected", kv...)
	default:
		logger.Debug("request rejected", kv...)
	}

	writeJSON(w, status, body)
}

func classify(err error) (int, messageResponse) {
	if authErr, ok := auth.AsError(err); ok {
		switch authErr.Kind {
		case auth.KindUnauthenticated:
			return http.StatusUnauthorized, messageResponse{Message: msgUnauthenticated}
		case auth.KindForbidden:
			return http.StatusForbidden, messageResponse{Message: msgForbidden}
		case auth.KindNotFound:
			return http.StatusNotFound, messageResponse{Message: authErr.Cause}
		case auth.KindValidation:
			return http.StatusBadRequest, messageResponse{Message: authErr.Cause, Errors: authErr.Fields}
		}
	}

	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, messageResponse{Message: msgNotFound}
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest, messageResponse{Message: msgBadRequest}
	case errors.Is(err, shared.ErrExternalService):
		return http.StatusBadGateway, messageResponse{Message: msgUpstream}
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, messageResponse{Message: msgUnavailable}
	default:
		return http.StatusInternalServerError, messageResponse{Message: msgServerError}
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return auth.Invalid(msgBadRequest)
	}
	return nil
}

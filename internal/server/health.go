package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler serves the public liveness and metrics endpoints.
type HealthHandler struct {
	metrics http.Handler
}

func NewHealthHandler(gatherer prometheus.Gatherer) *HealthHandler {
	return &HealthHandler{metrics: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})}
}

func (h *HealthHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/healthz", Handler: http.HandlerFunc(h.health)},
		{Method: http.MethodGet, Path: "/metrics", Handler: h.metrics},
	}
}

func (h *HealthHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/setlist/internal/services"
	"github.com/prometheus/client_golang/prometheus"
)

// exchangeStats is implemented by [*services.TokenBroker].
type exchangeStats interface {
	Exchanges() int64
	ExchangeFailures() int64
}

// Metrics holds the HTTP and token broker collectors registered on one registry.
type Metrics struct {
	inFlight prometheus.Gauge
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. tokens may be nil.
func NewMetrics(reg prometheus.Registerer, tokens services.TokenCache) *Metrics {
	m := &Metrics{
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	reg.MustRegister(m.inFlight, m.requests, m.duration)

	if tokens == nil {
		return m
	}

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "spotify_token_remaining_seconds",
		Help: "Seconds until the cached Spotify app token expires.",
	}, func() float64 { return float64(tokens.RemainingValiditySeconds()) }))

	if stats, ok := tokens.(exchangeStats); ok {
		reg.MustRegister(
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: "spotify_token_exchanges_total",
				Help: "Client-credentials exchanges attempted.",
			}, func() float64 { return float64(stats.Exchanges()) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: "spotify_token_exchange_failures_total",
				Help: "Client-credentials exchanges that failed.",
			}, func() float64 { return float64(stats.ExchangeFailures()) }),
		)
	}

	return m
}

// Instrument records in-flight count, request totals and latency labelled by route pattern.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		sw := newStatusWriter(w)
		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(sw.code)

		m.duration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(r.Method, route, status).Inc()
	})
}

// statusWriter remembers the response code.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	if sw, ok := w.(*statusWriter); ok {
		return sw
	}
	return &statusWriter{ResponseWriter: w, code: http.StatusOK}
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

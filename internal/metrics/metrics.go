package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/toribox/toriadmin/internal/episodes"
)

// Metrics holds the Prometheus collectors of the admin service.
type Metrics struct {
	registry           *prometheus.Registry
	requestsTotal      prometheus.Counter
	errorsTotal        prometheus.Counter
	reconcilesTotal    *prometheus.CounterVec
	listingErrors      *prometheus.CounterVec
	episodesTotal      *prometheus.CounterVec
	catalogMovies      prometheus.Gauge
	uploadsTotal       *prometheus.CounterVec
	dashboardRefreshes prometheus.Counter
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "toriadmin_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "toriadmin_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		reconcilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toriadmin_episode_reconciles_total",
			Help: "Episode reconciliations by the listing that supplied the streams",
		}, []string{"source"}),
		listingErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toriadmin_episode_listing_errors_total",
			Help: "Failed or unusable episode listings by listing",
		}, []string{"listing"}),
		episodesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toriadmin_reconciled_episodes_total",
			Help: "Reconciled episodes split by whether a stream URL was found",
		}, []string{"stream"}),
		catalogMovies: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "toriadmin_catalog_movies",
			Help: "Number of movies in the last fetched catalog",
		}),
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toriadmin_uploads_total",
			Help: "Uploads by kind and outcome",
		}, []string{"kind", "status"}),
		dashboardRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "toriadmin_dashboard_refreshes_total",
			Help: "Completed dashboard statistics refreshes",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.reconcilesTotal,
		m.listingErrors,
		m.episodesTotal,
		m.catalogMovies,
		m.uploadsTotal,
		m.dashboardRefreshes,
	)

	return m
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// ObserveReconcile records an episode reconciliation report.
func (m *Metrics) ObserveReconcile(report episodes.Report) {
	m.reconcilesTotal.WithLabelValues(string(report.Source)).Inc()

	if report.AdminErr != nil {
		m.listingErrors.WithLabelValues(string(episodes.SourceAdmin)).Inc()
	}
	if report.PublicErr != nil {
		m.listingErrors.WithLabelValues(string(episodes.SourcePublic)).Inc()
	}

	m.episodesTotal.WithLabelValues("found").Add(float64(report.Streamed))
	m.episodesTotal.WithLabelValues("missing").Add(float64(report.Episodes - report.Streamed))
}

// SetCatalogMovies sets the catalog size gauge.
func (m *Metrics) SetCatalogMovies(n int) {
	m.catalogMovies.Set(float64(n))
}

// IncUploads counts a finished upload.
func (m *Metrics) IncUploads(kind, status string) {
	m.uploadsTotal.WithLabelValues(kind, status).Inc()
}

// IncDashboardRefreshes counts a completed dashboard refresh.
func (m *Metrics) IncDashboardRefreshes() {
	m.dashboardRefreshes.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

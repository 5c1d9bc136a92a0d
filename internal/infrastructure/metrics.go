package infrastructure

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the dashboard service.
// Counters cover the three externally visible operations; warnings get
// their own counter since degraded uploads are invisible in status codes.
type Metrics struct {
	registry *prometheus.Registry

	UploadsTotal        prometheus.Counter
	UploadWarningsTotal prometheus.Counter
	SummariesTotal      prometheus.Counter
	ExportsTotal        *prometheus.CounterVec
}

// NewMetrics creates a metrics set on its own registry, so tests can build
// isolated instances without duplicate-registration panics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		UploadsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pushpulse_uploads_total",
			Help: "Number of uploaded files accepted into a session.",
		}),
		UploadWarningsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pushpulse_upload_warnings_total",
			Help: "Number of uploaded files that degraded to a warning.",
		}),
		SummariesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pushpulse_summaries_total",
			Help: "Number of metrics summaries computed.",
		}),
		ExportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pushpulse_exports_total",
			Help: "Number of report exports, by format.",
		}, []string{"format"}),
	}
}

// Handler returns the HTTP handler serving this metrics set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

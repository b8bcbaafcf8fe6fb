package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	LookupRuns     *prometheus.CounterVec
	ProviderErrors *prometheus.CounterVec
	RequestSeconds *prometheus.HistogramVec
	ExportFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		LookupRuns: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "aether_lookup_runs_total",
			Help: "Total number of lookup runs by outcome.",
		}, []string{"outcome"}),
		ProviderErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "aether_provider_errors_total",
			Help: "Total number of failed upstream API calls by provider and reason.",
		}, []string{"provider", "reason"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aether_provider_request_duration_seconds",
			Help:    "Duration of requests to the upstream APIs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ExportFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "aether_export_failures_total",
			Help: "Total number of failed writes of the export file.",
		}),
	}
}

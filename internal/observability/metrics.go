package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "claims_risk"

// Metrics holds the Prometheus counters, histograms, and gauges for analysis runs.
type Metrics struct {
	QuartersAnalyzed     prometheus.Counter
	HighLossQuarters     prometheus.Counter
	CorrelationsComputed prometheus.Counter
	CorrelationsSkipped  prometheus.Counter
	Runs                 *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration          prometheus.Histogram

	// Event publishing metrics.
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter

	// Area lookup metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(nil)
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	reg := prometheus.NewRegistry()
	m := newMetrics(reg)
	reg.MustRegister(m.collectors()...)
	return m
}

func newMetrics(reg *prometheus.Registry) *Metrics {
	return &Metrics{
		QuartersAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quarters_analyzed_total",
			Help:      "Total quarter records evaluated.",
		}),
		HighLossQuarters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "high_loss_quarters_total",
			Help:      "Total quarters labelled high-loss.",
		}),
		CorrelationsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "correlations_computed_total",
			Help:      "Total correlation pairs computed.",
		}),
		CorrelationsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "correlations_skipped_total",
			Help:      "Total correlation pairs skipped for missing or insufficient data.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Analysis runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a single dataset analysis.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total quarter events written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total failed Kafka writes.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Area lookup API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Area lookup cache results.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		registry: reg,
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.QuartersAnalyzed,
		m.HighLossQuarters,
		m.CorrelationsComputed,
		m.CorrelationsSkipped,
		m.Runs,
		m.RunDuration,
		m.EventsPublished,
		m.PublishErrors,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	}
}

// Gatherer returns the registry the metrics were registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m.registry != nil {
		return m.registry
	}
	return prometheus.DefaultGatherer
}

// WriteTextfile dumps the current metric values in the node-exporter textfile
// format. The write is atomic.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Gatherer()); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_digest"

// Metrics holds the Prometheus counters, histograms, and gauges for the digest run.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	RunDuration     prometheus.Histogram
	LastSuccess     prometheus.Gauge

	// Upstream fetch metrics.
	FetchRequests *prometheus.CounterVec   // labels: dataset, outcome={success,empty,error}
	FetchRetries  *prometheus.CounterVec   // labels: dataset
	FetchDuration *prometheus.HistogramVec // labels: dataset
	FetchCache    *prometheus.CounterVec   // labels: result={hit,miss}
	TLSFallbacks  prometheus.Counter

	// Warning pipeline metrics.
	AlertsEmitted  *prometheus.CounterVec // labels: source
	SourceFailures *prometheus.CounterVec // labels: source
	AlertsDropped  *prometheus.CounterVec // labels: reason={county,filtered}

	// Summarizer and publishing metrics.
	SummarizerCalls *prometheus.CounterVec // labels: kind={outlook,digest}, outcome={success,error,skipped}
	Published       *prometheus.CounterVec // labels: sink={feed,notifier,kafka}, outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.PipelineRunning,
		m.RunDuration,
		m.LastSuccess,
		m.FetchRequests,
		m.FetchRetries,
		m.FetchDuration,
		m.FetchCache,
		m.TLSFallbacks,
		m.AlertsEmitted,
		m.SourceFailures,
		m.AlertsDropped,
		m.SummarizerCalls,
		m.Published,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 while a digest run is in progress."),
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      help("Duration of a complete fetch-summarize-publish run."),
			Buckets:   []float64{1, 5, 10, 20, 30, 60, 120, 300},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      help("Unix time of the last run that published a feed."),
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      help("CWA dataset requests by dataset and outcome."),
		}, []string{"dataset", "outcome"}),
		FetchRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      help("Retried CWA requests by dataset."),
		}, []string{"dataset"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      help("CWA request duration in seconds, including retries."),
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"dataset"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cache_total",
			Help:      help("Per-run response cache lookups by result."),
		}, []string{"result"}),
		TLSFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tls_fallbacks_total",
			Help:      help("Requests retried without certificate verification."),
		}),
		AlertsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_emitted_total",
			Help:      help("Alerts produced by each warning source."),
		}, []string{"source"}),
		SourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      help("Warning sources that failed without producing alerts."),
		}, []string{"source"}),
		AlertsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_dropped_total",
			Help:      help("Alerts removed from the digest by reason."),
		}, []string{"reason"}),
		SummarizerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summarizer_calls_total",
			Help:      help("Summarizer invocations by kind and outcome."),
		}, []string{"kind", "outcome"}),
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_total",
			Help:      help("Publish attempts by sink and outcome."),
		}, []string{"sink", "outcome"}),
	}
}

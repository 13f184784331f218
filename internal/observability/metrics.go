package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "water_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// normalization pipeline and the dashboard.
type Metrics struct {
	RowsRead        prometheus.Counter
	RowsExcluded    *prometheus.CounterVec // labels: reason={granularity,no_period}
	PeriodsEmitted  prometheus.Gauge
	Diagnostics     *prometheus.CounterVec // labels: kind={assumption_applied,unresolvable_field}
	Runs            *prometheus.CounterVec // labels: outcome={success,failed}
	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge

	// Publication metrics.
	RowsPublished prometheus.Counter
	PublishErrors prometheus.Counter

	// Dashboard metrics.
	ChartRenders *prometheus.CounterVec // labels: outcome={success,error,placeholder}
	ChartCache   *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RowsRead,
		m.RowsExcluded,
		m.PeriodsEmitted,
		m.Diagnostics,
		m.Runs,
		m.RunDuration,
		m.PipelineRunning,
		m.RowsPublished,
		m.PublishErrors,
		m.ChartRenders,
		m.ChartCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they need without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Total raw rows read from the source report.",
		}),
		RowsExcluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_excluded_total",
			Help:      "Raw rows left out of the cleaned table, by reason.",
		}, []string{"reason"}),
		PeriodsEmitted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "periods_emitted",
			Help:      "Number of monthly rows in the latest cleaned table.",
		}),
		Diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Recoverable diagnostics recorded, by kind.",
		}, []string{"kind"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs, by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-normalize-load run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		RowsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_published_total",
			Help:      "Cleaned rows published to the Kafka topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed publications of a cleaned table.",
		}),
		ChartRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_renders_total",
			Help:      "Dashboard tab renders, by outcome.",
		}, []string{"outcome"}),
		ChartCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_cache_total",
			Help:      "Chart cache lookups, by result.",
		}, []string{"result"}),
	}
}

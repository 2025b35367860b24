package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "arrestview"

// Load outcomes used as the "outcome" label of partition load metrics.
const (
	OutcomeLoaded      = "loaded"
	OutcomeUnavailable = "unavailable"
)

// Metrics holds the Prometheus collectors of the query core and transport.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	partitionLoads        *prometheus.CounterVec
	partitionLoadDuration *prometheus.HistogramVec
	partitionRows         prometheus.Counter
	poolInFlight          prometheus.Gauge
	mergedYears           *prometheus.CounterVec
	filterRows            prometheus.Histogram
	schemaMismatches      prometheus.Counter

	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		partitionLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "partition_loads_total",
				Help:      "Total number of partition loads by outcome",
			},
			[]string{"year", "outcome"},
		),
		partitionLoadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "partition_load_duration_seconds",
				Help:      "Partition download and decode duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),
		partitionRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partition_rows_loaded_total",
			Help:      "Total number of rows decoded from partitions",
		}),
		poolInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_tasks_in_flight",
			Help:      "Number of partition loads currently holding a worker slot",
		}),
		mergedYears: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "merged_years_total",
				Help:      "Years requested from the merger by outcome",
			},
			[]string{"outcome"},
		),
		filterRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filter_result_rows",
			Help:      "Number of rows returned by a filter request",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 8),
		}),
		schemaMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_mismatches_total",
			Help:      "Total number of queries rejected for a schema mismatch",
		}),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}

	reg.MustRegister(
		m.partitionLoads,
		m.partitionLoadDuration,
		m.partitionRows,
		m.poolInFlight,
		m.mergedYears,
		m.filterRows,
		m.schemaMismatches,
		m.httpRequestDuration,
		m.httpRequestsTotal,
	)
	return m
}

// PartitionLoaded records a successful partition load.
func (m *Metrics) PartitionLoaded(year int, d time.Duration, rows int) {
	if m == nil {
		return
	}
	m.partitionLoads.WithLabelValues(strconv.Itoa(year), OutcomeLoaded).Inc()
	m.partitionLoadDuration.WithLabelValues(OutcomeLoaded).Observe(d.Seconds())
	m.partitionRows.Add(float64(rows))
}

// PartitionUnavailable records a partition load that failed and was absorbed.
func (m *Metrics) PartitionUnavailable(year int, d time.Duration) {
	if m == nil {
		return
	}
	m.partitionLoads.WithLabelValues(strconv.Itoa(year), OutcomeUnavailable).Inc()
	m.partitionLoadDuration.WithLabelValues(OutcomeUnavailable).Observe(d.Seconds())
}

// TaskStarted increments the worker pool in-flight gauge.
func (m *Metrics) TaskStarted() {
	if m == nil {
		return
	}
	m.poolInFlight.Inc()
}

// TaskFinished decrements the worker pool in-flight gauge.
func (m *Metrics) TaskFinished() {
	if m == nil {
		return
	}
	m.poolInFlight.Dec()
}

// MergeCompleted records the outcome of one merge.
func (m *Metrics) MergeCompleted(loaded, failed int) {
	if m == nil {
		return
	}
	m.mergedYears.WithLabelValues(OutcomeLoaded).Add(float64(loaded))
	m.mergedYears.WithLabelValues(OutcomeUnavailable).Add(float64(failed))
}

// FilterCompleted records the size of a filter result.
func (m *Metrics) FilterCompleted(rows int) {
	if m == nil {
		return
	}
	m.filterRows.Observe(float64(rows))
}

// SchemaMismatch records a query rejected for a schema mismatch.
func (m *Metrics) SchemaMismatch() {
	if m == nil {
		return
	}
	m.schemaMismatches.Inc()
}

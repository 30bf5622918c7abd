package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection
type Collector struct {
	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Ingestion Metrics
	IngestionRecordsTotal prometheus.Counter
	IngestionSkippedTotal *prometheus.CounterVec
	IngestionDuration     prometheus.Histogram
	IngestionBatchSize    prometheus.Histogram

	// Event store Metrics
	DBQueryDuration *prometheus.HistogramVec
	DBErrorsTotal   *prometheus.CounterVec

	// Aggregation and rendering Metrics
	AggregationDuration prometheus.Histogram
	DocumentBytes       prometheus.Gauge

	// Metadata lookup Metrics
	MetadataLookupsTotal   *prometheus.CounterVec
	MetadataLookupDuration prometheus.Histogram
	CircuitBreakerState    *prometheus.GaugeVec
}

// NewCollector creates a new metrics collector registered on reg.
// Pass prometheus.DefaultRegisterer for the process-wide /metrics endpoint
// and a fresh prometheus.NewRegistry() in tests.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"route"},
		),

		IngestionRecordsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingestion_records_loaded_total",
				Help:      "Total number of watch events loaded into the event store",
			},
		),

		IngestionSkippedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingestion_records_skipped_total",
				Help:      "Total number of viewing history rows skipped by reason",
			},
			[]string{"reason"},
		),

		IngestionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ingestion_duration_seconds",
				Help:      "Duration of viewing history loads in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
		),

		IngestionBatchSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ingestion_batch_size",
				Help:      "Number of events per batch insert",
				Buckets:   []float64{10, 50, 100, 500, 1000, 5000},
			},
		),

		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Event store query duration in seconds by query type",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"query_type"},
		),

		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_errors_total",
				Help:      "Total number of event store errors by type",
			},
			[]string{"error_type"},
		),

		AggregationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "aggregation_duration_seconds",
				Help:      "Duration of year-in-review aggregation in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
		),

		DocumentBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dashboard_document_bytes",
				Help:      "Size of the cached dashboard document in bytes",
			},
		),

		MetadataLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "metadata_lookups_total",
				Help:      "Total number of genre lookups by outcome",
			},
			[]string{"outcome"}, // "found", "not_found", "error", "rejected"
		),

		MetadataLookupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "metadata_lookup_duration_seconds",
				Help:      "Genre lookup duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),

		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
	}
}

// Timer provides timing functionality for operations
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer
func (c *Collector) NewTimer(histogram prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram,
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordHTTPRequest increments the HTTP request counter
func (c *Collector) RecordHTTPRequest(route, method, status string) {
	c.HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
}

// RecordSkippedRow increments the skipped row counter
func (c *Collector) RecordSkippedRow(reason string) {
	c.IngestionSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordDBError increments the event store error counter
func (c *Collector) RecordDBError(errorType string) {
	c.DBErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordLookup increments the metadata lookup counter
func (c *Collector) RecordLookup(outcome string) {
	c.MetadataLookupsTotal.WithLabelValues(outcome).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics records per-store counters for ingestion batches.
type IngestMetrics struct {
	duration     *prometheus.HistogramVec
	rowsRead     *prometheus.CounterVec
	rowsSkipped  *prometheus.CounterVec
	observations *prometheus.CounterVec
	duplicates   *prometheus.CounterVec
}

// NewIngestMetrics registers the ingestion metrics on the provided registerer.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	if reg == nil {
		return &IngestMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingest_batch_duration_seconds",
		Help:    "Duration of ingestion batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"store"})
	rowsRead := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_rows_read_total",
		Help: "Canonical rows read per store.",
	}, []string{"store"})
	rowsSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_rows_skipped_total",
		Help: "Rows dropped for missing barcode or unparsable price.",
	}, []string{"store"})
	observations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_observations_appended_total",
		Help: "History rows appended per store.",
	}, []string{"store"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_observations_duplicate_total",
		Help: "History rows skipped as already-recorded duplicates.",
	}, []string{"store"})
	reg.MustRegister(duration, rowsRead, rowsSkipped, observations, duplicates)
	return &IngestMetrics{
		duration:     duration,
		rowsRead:     rowsRead,
		rowsSkipped:  rowsSkipped,
		observations: observations,
		duplicates:   duplicates,
	}
}

// ObserveDuration records the wall time of one batch.
func (m *IngestMetrics) ObserveDuration(store string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(store).Observe(d.Seconds())
}

// AddRowsRead increments the rows-read counter.
func (m *IngestMetrics) AddRowsRead(store string, n int) {
	if m == nil || m.rowsRead == nil {
		return
	}
	m.rowsRead.WithLabelValues(store).Add(float64(n))
}

// AddRowsSkipped increments the skipped-rows counter.
func (m *IngestMetrics) AddRowsSkipped(store string, n int) {
	if m == nil || m.rowsSkipped == nil {
		return
	}
	m.rowsSkipped.WithLabelValues(store).Add(float64(n))
}

// AddObservations increments the appended-history counter.
func (m *IngestMetrics) AddObservations(store string, n int) {
	if m == nil || m.observations == nil {
		return
	}
	m.observations.WithLabelValues(store).Add(float64(n))
}

// AddDuplicates increments the duplicate-history counter.
func (m *IngestMetrics) AddDuplicates(store string, n int) {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.WithLabelValues(store).Add(float64(n))
}

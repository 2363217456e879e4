package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIngestMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIngestMetrics(reg)

	m.AddRowsRead("072", 10)
	m.AddRowsSkipped("072", 2)
	m.AddObservations("072", 8)
	m.AddDuplicates("072", 8)
	m.ObserveDuration("072", 250*time.Millisecond)

	if got := testutil.ToFloat64(m.rowsRead.WithLabelValues("072")); got != 10 {
		t.Fatalf("rows read = %v, want 10", got)
	}
	if got := testutil.ToFloat64(m.duplicates.WithLabelValues("072")); got != 8 {
		t.Fatalf("duplicates = %v, want 8", got)
	}
}

func TestIngestMetricsNilSafe(t *testing.T) {
	var m *IngestMetrics
	m.AddRowsRead("072", 1)
	m.ObserveDuration("072", time.Second)

	empty := NewIngestMetrics(nil)
	empty.AddObservations("072", 1)
}

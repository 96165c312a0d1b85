package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRefreshMetrics_RecordCycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRefreshMetricsWithRegistry(reg)

	m.RecordCycle(TargetLocations, 0.010, true)
	m.RecordCycle(TargetLocations, 0.020, true)
	m.RecordCycle(TargetLocations, 2.0, false) // timeout
	m.RecordCycle(TargetRoutees, 0.005, true)

	successMetric := &dto.Metric{}
	if err := m.CyclesTotal.WithLabelValues(TargetLocations, StatusSuccess).Write(successMetric); err != nil {
		t.Fatalf("failed to write success counter: %v", err)
	}
	if got := successMetric.Counter.GetValue(); got != 2 {
		t.Errorf("location success count = %v, want 2", got)
	}

	failureMetric := &dto.Metric{}
	if err := m.CyclesTotal.WithLabelValues(TargetLocations, StatusFailure).Write(failureMetric); err != nil {
		t.Fatalf("failed to write failure counter: %v", err)
	}
	if got := failureMetric.Counter.GetValue(); got != 1 {
		t.Errorf("location failure count = %v, want 1", got)
	}

	histMetric := &dto.Metric{}
	hist := m.Duration.WithLabelValues(TargetLocations)
	if err := hist.(prometheus.Metric).Write(histMetric); err != nil {
		t.Fatalf("failed to write histogram: %v", err)
	}
	if got := histMetric.Histogram.GetSampleCount(); got != 3 {
		t.Errorf("location duration samples = %d, want 3", got)
	}
}

func TestRefreshMetrics_NilReceiver(t *testing.T) {
	var m *RefreshMetrics
	m.RecordCycle(TargetRoutees, 0.001, true)
}

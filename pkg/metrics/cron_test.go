package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCronJobMetricsSplitsRunsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.now = func() time.Time { return time.Unix(1_792_152_000, 0) }

	m.ObserveDuration("session-eviction", 250*time.Millisecond)
	m.IncSuccess("session-eviction")
	m.IncSuccess("session-eviction")
	m.IncFailure("receipt-retention")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := counterValue(t, mfs, "storefront_job_runs_total", map[string]string{"job": "session-eviction", "result": "success"}); got != 2 {
		t.Fatalf("expected 2 successful evictions, got %f", got)
	}
	if got := counterValue(t, mfs, "storefront_job_runs_total", map[string]string{"job": "receipt-retention", "result": "failure"}); got != 1 {
		t.Fatalf("expected 1 failed retention run, got %f", got)
	}
	if got := gaugeValue(t, mfs, "storefront_job_last_success_timestamp_seconds", map[string]string{"job": "session-eviction"}); got != 1_792_152_000 {
		t.Fatalf("unexpected last success stamp %f", got)
	}
	if findMetric(mfs, "storefront_job_last_success_timestamp_seconds", map[string]string{"job": "receipt-retention"}) != nil {
		t.Fatal("a job that never succeeded has no success stamp")
	}
	if got := histogramSum(t, mfs, "storefront_job_duration_seconds", map[string]string{"job": "session-eviction"}); got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilCronJobMetricsIsSafe(t *testing.T) {
	var m *CronJobMetrics
	m.IncSuccess("x")
	m.IncFailure("x")
	m.ObserveDuration("x", time.Second)
	NewCronJobMetrics(nil).IncSuccess("x")
}

package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func findMetric(mfs []*dto.MetricFamily, name string, labels map[string]string) *dto.Metric {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if hasLabels(metric.GetLabel(), labels) {
				return metric
			}
		}
	}
	return nil
}

func mustFind(t *testing.T, mfs []*dto.MetricFamily, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	metric := findMetric(mfs, name, labels)
	if metric == nil {
		t.Fatalf("metric %s%v not found", name, labels)
	}
	return metric
}

func counterValue(t *testing.T, mfs []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	return mustFind(t, mfs, name, labels).GetCounter().GetValue()
}

func gaugeValue(t *testing.T, mfs []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	return mustFind(t, mfs, name, labels).GetGauge().GetValue()
}

func histogramSum(t *testing.T, mfs []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	return mustFind(t, mfs, name, labels).GetHistogram().GetSampleSum()
}

func hasLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, p := range pairs {
		if v, ok := want[p.GetName()]; ok && v == p.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}

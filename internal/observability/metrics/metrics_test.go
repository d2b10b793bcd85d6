package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDispatchMetricsObserve(t *testing.T) {
	m := NewDispatchMetrics(prometheus.NewRegistry())
	m.ObserveLead("home", "qualified")
	m.ObserveLead("offer", "")
	m.ObserveDispatch("clickup", "ok", 0.5)
	m.ObserveFollowUp("schedule", "ok")
	m.ObserveSMS("sent")
}

func TestDispatchMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg)
	m.ObserveDispatch("telegram", "failed", 0.1)
}

func TestDispatchMetricsNilSafe(t *testing.T) {
	var m *DispatchMetrics
	m.ObserveLead("home", "qualified")
	m.ObserveDispatch("clickup", "ok", 0.1)
	m.ObserveFollowUp("cancel", "failed")
	m.ObserveSMS("skipped")
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// DispatchMetrics exposes counters/histograms for lead intake and the
// integration fan-out.
type DispatchMetrics struct {
	leadsTotal      *prometheus.CounterVec
	dispatchTotal   *prometheus.CounterVec
	dispatchLatency *prometheus.HistogramVec
	followUpTotal   *prometheus.CounterVec
	smsTotal        *prometheus.CounterVec
}

func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		leadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agency",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Total lead submissions received",
		}, []string{"page", "qualification"}),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agency",
			Subsystem: "dispatch",
			Name:      "integrations_total",
			Help:      "Total integration dispatch outcomes",
		}, []string{"service", "status"}),
		dispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agency",
			Subsystem: "dispatch",
			Name:      "integration_latency_seconds",
			Help:      "Latency of integration dispatch calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		followUpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agency",
			Subsystem: "followup",
			Name:      "actions_total",
			Help:      "Total follow-up schedule/cancel actions",
		}, []string{"action", "status"}),
		smsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agency",
			Subsystem: "sms",
			Name:      "sends_total",
			Help:      "Total follow-up SMS send attempts",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.leadsTotal, m.dispatchTotal, m.dispatchLatency, m.followUpTotal, m.smsTotal)
	return m
}

func (m *DispatchMetrics) ObserveLead(page, qualification string) {
	if m == nil {
		return
	}
	if qualification == "" {
		qualification = "unset"
	}
	m.leadsTotal.WithLabelValues(page, qualification).Inc()
}

func (m *DispatchMetrics) ObserveDispatch(service, status string, seconds float64) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(service, status).Inc()
	m.dispatchLatency.WithLabelValues(service).Observe(seconds)
}

func (m *DispatchMetrics) ObserveFollowUp(action, status string) {
	if m == nil {
		return
	}
	m.followUpTotal.WithLabelValues(action, status).Inc()
}

func (m *DispatchMetrics) ObserveSMS(status string) {
	if m == nil {
		return
	}
	m.smsTotal.WithLabelValues(status).Inc()
}

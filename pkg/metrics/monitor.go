package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MonitorMetrics records metadata for budget monitor cycles.
type MonitorMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	status   *prometheus.GaugeVec
}

// NewMonitorMetrics registers the monitor metrics on the provided registerer.
func NewMonitorMetrics(reg prometheus.Registerer) *MonitorMetrics {
	if reg == nil {
		return &MonitorMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "budget_monitor_cycle_duration_seconds",
		Help:    "Duration of budget monitor cycles in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "budget_monitor_cycle_success",
		Help: "Successful budget monitor cycles.",
	}, []string{"trigger"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "budget_monitor_cycle_failure",
		Help: "Failed budget monitor cycles.",
	}, []string{"trigger"})
	status := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "budget_status",
		Help: "Current budget status (1 for the active status label, 0 otherwise).",
	}, []string{"status"})
	reg.MustRegister(duration, success, failure, status)
	return &MonitorMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		status:   status,
	}
}

// ObserveDuration records the duration of a cycle for the given trigger kind.
func (m *MonitorMetrics) ObserveDuration(trigger string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(trigger)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the given trigger kind.
func (m *MonitorMetrics) IncSuccess(trigger string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// IncFailure increments the failure counter for the given trigger kind.
func (m *MonitorMetrics) IncFailure(trigger string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// SetStatus marks the active budget status label.
func (m *MonitorMetrics) SetStatus(active string, all []string) {
	if m == nil || m.status == nil {
		return
	}
	for _, s := range all {
		value := 0.0
		if s == active {
			value = 1.0
		}
		m.status.WithLabelValues(normalizeLabel(s)).Set(value)
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

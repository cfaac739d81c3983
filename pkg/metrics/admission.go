package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AdmissionMetrics records the outcome of every admission decision.
type AdmissionMetrics struct {
	admitted *prometheus.CounterVec
	denied   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewAdmissionMetrics registers the admission metrics on the provided registerer.
func NewAdmissionMetrics(reg prometheus.Registerer) *AdmissionMetrics {
	if reg == nil {
		return &AdmissionMetrics{}
	}
	admitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admission_admitted_total",
		Help: "Admitted spend events by category.",
	}, []string{"category"})
	denied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admission_denied_total",
		Help: "Denied spend events by category and reason.",
	}, []string{"category", "reason"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admission_decide_duration_seconds",
		Help:    "Latency of admission decisions in seconds.",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
	}, []string{"category"})
	reg.MustRegister(admitted, denied, duration)
	return &AdmissionMetrics{
		admitted: admitted,
		denied:   denied,
		duration: duration,
	}
}

// IncAdmitted increments the admitted counter for the category.
func (a *AdmissionMetrics) IncAdmitted(category string) {
	if a == nil || a.admitted == nil {
		return
	}
	a.admitted.WithLabelValues(normalizeLabel(category)).Inc()
}

// IncDenied increments the denied counter for the category/reason pair.
func (a *AdmissionMetrics) IncDenied(category, reason string) {
	if a == nil || a.denied == nil {
		return
	}
	a.denied.WithLabelValues(normalizeLabel(category), normalizeLabel(reason)).Inc()
}

// ObserveDecide records the latency of one decision.
func (a *AdmissionMetrics) ObserveDecide(category string, duration time.Duration) {
	if a == nil || a.duration == nil {
		return
	}
	a.duration.WithLabelValues(normalizeLabel(category)).Observe(duration.Seconds())
}

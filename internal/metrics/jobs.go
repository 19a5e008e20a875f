package metrics

import "github.com/prometheus/client_golang/prometheus"

// JobMetrics holds Prometheus metrics for analysis jobs.
type JobMetrics struct {
	Submitted prometheus.Counter
	InFlight  prometheus.Gauge
	Completed *prometheus.CounterVec
	Duration  prometheus.Histogram
}

// NewJobMetrics creates and registers job metrics on the given registry.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	m := &JobMetrics{
		Submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "submitted_total",
			Help:      "Total number of analysis jobs submitted.",
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "in_flight",
			Help:      "Number of analysis jobs not yet delivered.",
		}),
		Completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "completed_total",
			Help:      "Total number of analysis jobs finished, by final status.",
		}, []string{"status"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Time spent inside the analyzer.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}

	reg.MustRegister(m.Submitted, m.InFlight, m.Completed, m.Duration)
	return m
}

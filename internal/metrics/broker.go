package metrics

import "github.com/prometheus/client_golang/prometheus"

// Reasons an inbound frame is discarded.
const (
	DiscardMalformed = "malformed"
	DiscardMismatch  = "session_mismatch"
)

// BrokerMetrics holds Prometheus metrics for the session broker.
type BrokerMetrics struct {
	ActiveSessions   prometheus.Gauge
	SessionsOpened   prometheus.Counter
	SessionsClosed   *prometheus.CounterVec
	ProbesSent       prometheus.Counter
	MessagesSent     prometheus.Counter
	SendFailures     prometheus.Counter
	InboundDiscarded *prometheus.CounterVec
}

// NewBrokerMetrics creates and registers broker metrics on the given registry.
func NewBrokerMetrics(reg prometheus.Registerer) *BrokerMetrics {
	m := &BrokerMetrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "active_sessions",
			Help:      "Number of registered sessions.",
		}),
		SessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "sessions_opened_total",
			Help:      "Total number of sessions assigned.",
		}),
		SessionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "sessions_closed_total",
			Help:      "Total number of sessions closed, by reason.",
		}, []string{"reason"}),
		ProbesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "liveness_probes_total",
			Help:      "Total number of liveness probes sent.",
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "messages_sent_total",
			Help:      "Total number of outbound messages handed to connections.",
		}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "send_failures_total",
			Help:      "Total number of outbound messages that could not be delivered.",
		}),
		InboundDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "inbound_discarded_total",
			Help:      "Total number of inbound frames discarded, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.ActiveSessions,
		m.SessionsOpened,
		m.SessionsClosed,
		m.ProbesSent,
		m.MessagesSent,
		m.SendFailures,
		m.InboundDiscarded,
	)
	return m
}

package broker

import (
	"fmt"
	"log/slog"

	"github.com/review-sentiment/backend/internal/logging"
	"github.com/review-sentiment/backend/internal/metrics"
	"github.com/review-sentiment/backend/internal/protocol"
)

// Sender delivers one outbound message to one connection. Failures are
// logged and counted, never returned.
type Sender struct {
	dialect protocol.Dialect
	metrics *metrics.BrokerMetrics
	logger  *slog.Logger
}

// NewSender creates a Sender writing the given dialect.
func NewSender(dialect protocol.Dialect, m *metrics.BrokerMetrics, logger *slog.Logger) *Sender {
	return &Sender{dialect: dialect, metrics: m, logger: logger}
}

// Send writes msg to conn and reports whether the write was accepted.
func (s *Sender) Send(conn Conn, msg protocol.Outbound) (ok bool) {
	log := logging.WithSession(s.logger, msg.SessionID())

	defer func() {
		if r := recover(); r != nil {
			log.Warn("Outgoing failed", "error", fmt.Sprint(r))
			s.metrics.SendFailures.Inc()
			ok = false
		}
	}()

	if conn == nil {
		log.Warn("Outgoing failed (no connection)")
		s.metrics.SendFailures.Inc()
		return false
	}

	data, err := s.dialect.Encode(msg)
	if err != nil {
		log.Error("Failed to encode outgoing message", "error", err)
		s.metrics.SendFailures.Inc()
		return false
	}

	if err := conn.WriteMessage(data); err != nil {
		log.Warn("Outgoing failed (socket already closed)", "error", err)
		s.metrics.SendFailures.Inc()
		return false
	}

	log.Debug("Outgoing", "message", string(data))
	s.metrics.MessagesSent.Inc()
	return true
}

package broker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/review-sentiment/backend/internal/analyzer"
	"github.com/review-sentiment/backend/internal/buffer"
	"github.com/review-sentiment/backend/internal/logging"
	"github.com/review-sentiment/backend/internal/metrics"
	"github.com/review-sentiment/backend/internal/model"
	"github.com/review-sentiment/backend/internal/protocol"
)

// Close reasons, used for logging and the sessions_closed_total metric.
const (
	ReasonEvicted     = "evicted"
	ReasonClientClose = "client_close"
	ReasonDisconnect  = "disconnect"
	ReasonShutdown    = "shutdown"
)

// DefaultClosedHistory is how many closed sessions Broker remembers.
const DefaultClosedHistory = 100

// Options configures a Broker. Zero values select defaults.
type Options struct {
	HeartbeatPeriod   time.Duration
	MaxConcurrentJobs int
	ClosedHistory     int
	Dialect           protocol.Dialect
	Clock             clockwork.Clock
	Recorder          JobRecorder
	Registerer        prometheus.Registerer
	Logger            *slog.Logger
}

// SessionInfo describes a registered session.
type SessionInfo struct {
	ID          string    `json:"id"`
	Awaiting    bool      `json:"awaiting"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// ClosedSession records how a session ended.
type ClosedSession struct {
	ID          string    `json:"id"`
	Reason      string    `json:"reason"`
	ConnectedAt time.Time `json:"connectedAt"`
	ClosedAt    time.Time `json:"closedAt"`
}

// Broker owns the session registry and the liveness tracker. Both are only
// touched by the event loop goroutine; everything else posts events to it.
type Broker struct {
	registry   *Registry
	liveness   *LivenessTracker
	sender     *Sender
	heartbeat  *HeartbeatScheduler
	dispatcher *JobDispatcher
	metrics    *metrics.BrokerMetrics
	closed     *buffer.Ring[ClosedSession]
	clock      clockwork.Clock
	logger     *slog.Logger

	events chan event
	done   chan struct{}

	lifecycle sync.Mutex
	accepting atomic.Bool
	stopped   atomic.Bool
}

// event is a sealed command for the event loop.
type event interface{ isEvent() }

type evConnect struct {
	conn  Conn
	reply chan string
}

type evInbound struct {
	sessionID string
	msg       protocol.Inbound
}

type evDisconnect struct {
	sessionID string
}

type evTick struct {
	done chan struct{}
}

type evJobDone struct {
	result JobResult
	reply  chan bool
}

type evSnapshot struct {
	reply chan []SessionInfo
}

type evShutdown struct{}

func (evConnect) isEvent()    {}
func (evInbound) isEvent()    {}
func (evDisconnect) isEvent() {}
func (evTick) isEvent()       {}
func (evJobDone) isEvent()    {}
func (evSnapshot) isEvent()   {}
func (evShutdown) isEvent()   {}

// New creates a Broker and starts its event loop. The broker does not accept
// connections or tick until Start is called.
func New(a analyzer.Analyzer, opts Options) *Broker {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.NewRegistry()
	}
	if opts.Dialect == "" {
		opts.Dialect = protocol.DialectStandard
	}
	if opts.ClosedHistory <= 0 {
		opts.ClosedHistory = DefaultClosedHistory
	}

	logger := opts.Logger.With("component", "broker")
	bm := metrics.NewBrokerMetrics(opts.Registerer)

	b := &Broker{
		registry: NewRegistry(),
		liveness: NewLivenessTracker(),
		sender:   NewSender(opts.Dialect, bm, logger),
		metrics:  bm,
		closed:   buffer.NewRing[ClosedSession](opts.ClosedHistory),
		clock:    opts.Clock,
		logger:   logger,
		events:   make(chan event),
		done:     make(chan struct{}),
	}
	b.heartbeat = NewHeartbeatScheduler(opts.Clock, opts.HeartbeatPeriod, b.onTick)
	b.dispatcher = newJobDispatcher(a, opts.Recorder, opts.MaxConcurrentJobs, opts.Clock,
		metrics.NewJobMetrics(opts.Registerer), logger.With("component", "dispatcher"), b.deliver)

	go b.run()
	return b
}

// Start begins accepting connections and starts the heartbeat. Calling it
// again while running is a no-op; calling it after Stop returns
// model.ErrBrokerStopped.
func (b *Broker) Start() error {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	if b.stopped.Load() {
		return model.ErrBrokerStopped
	}
	if b.heartbeat.Start() {
		b.logger.Info("Broker started", "heartbeat_period", b.heartbeat.Period())
	}
	b.accepting.Store(true)
	return nil
}

// Stop stops accepting connections, stops the heartbeat, then closes every
// registered session with a session-close notice. It is idempotent. In-flight
// jobs keep running; their results are dropped.
func (b *Broker) Stop(ctx context.Context) error {
	b.lifecycle.Lock()
	first := b.stopped.CompareAndSwap(false, true)
	if first {
		b.accepting.Store(false)
		b.heartbeat.Stop()
		b.post(evShutdown{})
	}
	b.lifecycle.Unlock()

	select {
	case <-b.done:
		if first {
			b.logger.Info("Broker stopped")
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Accepting reports whether new connections are admitted.
func (b *Broker) Accepting() bool {
	return b.accepting.Load()
}

// ServeConn registers conn as a new session, sends it its identity and runs
// its receive loop until the connection fails or ctx is done.
func (b *Broker) ServeConn(ctx context.Context, conn Conn) error {
	if !b.accepting.Load() {
		return model.ErrNotAccepting
	}

	reply := make(chan string, 1)
	if !b.post(evConnect{conn: conn, reply: reply}) {
		return model.ErrBrokerStopped
	}
	id := <-reply

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer b.post(evDisconnect{sessionID: id})

	log := logging.WithSession(b.logger, id)
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			log.Debug("Receive loop ended", "error", err)
			return nil
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Warn("Discarding inbound message", "error", err)
			b.metrics.InboundDiscarded.WithLabelValues(metrics.DiscardMalformed).Inc()
			continue
		}
		if msg.SessionID() != id {
			log.Warn("Discarding inbound message for another session", "client_key", msg.SessionID())
			b.metrics.InboundDiscarded.WithLabelValues(metrics.DiscardMismatch).Inc()
			continue
		}

		if !b.post(evInbound{sessionID: id, msg: msg}) {
			return nil
		}
	}
}

// SubmitAnalysis starts an analysis for sessionID and returns the job id.
// The result is delivered to the session over its connection.
func (b *Broker) SubmitAnalysis(sessionID string, source model.JobSource, in analyzer.Input) string {
	return b.dispatcher.Submit(JobRequest{SessionID: sessionID, Source: source, Input: in})
}

// Sessions returns the registered sessions in registration order.
func (b *Broker) Sessions() []SessionInfo {
	reply := make(chan []SessionInfo, 1)
	if !b.post(evSnapshot{reply: reply}) {
		return []SessionInfo{}
	}
	return <-reply
}

// RecentlyClosed returns the most recently closed sessions, oldest first.
func (b *Broker) RecentlyClosed() []ClosedSession {
	return b.closed.Items()
}

// WaitJobs blocks until every submitted job has finished or ctx is done.
func (b *Broker) WaitJobs(ctx context.Context) error {
	return b.dispatcher.Wait(ctx)
}

// post hands ev to the event loop. It returns false once the loop has exited.
func (b *Broker) post(ev event) bool {
	select {
	case b.events <- ev:
		return true
	case <-b.done:
		return false
	}
}

func (b *Broker) run() {
	defer close(b.done)

	for ev := range b.events {
		switch ev := ev.(type) {
		case evConnect:
			ev.reply <- b.open(ev.conn)
		case evInbound:
			if _, ok := b.registry.Lookup(ev.sessionID); ok {
				ev.msg.Accept(inboundRouter{b: b, id: ev.sessionID})
			}
		case evDisconnect:
			b.closeSession(ev.sessionID, ReasonDisconnect, false)
		case evTick:
			b.sweep()
			close(ev.done)
		case evJobDone:
			ev.reply <- b.deliverResult(ev.result)
		case evSnapshot:
			ev.reply <- b.snapshot()
		case evShutdown:
			for _, s := range b.registry.Active() {
				b.closeSession(s.ID, ReasonShutdown, true)
			}
			return
		}
	}
}

func (b *Broker) open(conn Conn) string {
	id := b.registry.Register(conn, b.clock.Now())
	b.metrics.SessionsOpened.Inc()
	b.metrics.ActiveSessions.Set(float64(b.registry.Len()))
	b.logger.Info("Session opened", "session_id", id)

	b.sender.Send(conn, protocol.SessionAssigned{Session: id})
	return id
}

// closeSession tears a session down. With notify set the peer gets a
// session-close notice before its connection is closed.
func (b *Broker) closeSession(id, reason string, notify bool) {
	s, ok := b.registry.Get(id)
	if !ok {
		return
	}
	conn := s.Conn
	log := logging.WithSession(b.logger, id)

	b.liveness.Acknowledge(id)
	if notify {
		b.sender.Send(conn, protocol.SessionClose{Session: id})
	}
	if err := conn.Close(); err != nil {
		log.Debug("Connection close failed", "error", err)
	}
	b.registry.Unregister(id)
	b.closed.Push(ClosedSession{ID: id, Reason: reason, ConnectedAt: s.ConnectedAt, ClosedAt: b.clock.Now()})

	b.metrics.SessionsClosed.WithLabelValues(reason).Inc()
	b.metrics.ActiveSessions.Set(float64(b.registry.Len()))
	log.Info("Session closed", "reason", reason)
}

// sweep evicts the sessions that ignored the previous probe, then probes
// every session still registered.
func (b *Broker) sweep() {
	for _, id := range b.liveness.SnapshotAndClear() {
		b.closeSession(id, ReasonEvicted, true)
	}

	for _, s := range b.registry.Active() {
		b.sender.Send(s.Conn, protocol.LivenessProbe{Session: s.ID})
		b.liveness.MarkAwaiting(s.ID)
		b.metrics.ProbesSent.Inc()
	}
}

func (b *Broker) snapshot() []SessionInfo {
	active := b.registry.Active()
	out := make([]SessionInfo, 0, len(active))
	for _, s := range active {
		out = append(out, SessionInfo{
			ID:          s.ID,
			Awaiting:    b.liveness.IsAwaiting(s.ID),
			ConnectedAt: s.ConnectedAt,
		})
	}
	return out
}

func (b *Broker) deliverResult(r JobResult) bool {
	conn, ok := b.registry.Lookup(r.SessionID)
	if !ok {
		return false
	}
	b.sender.Send(conn, protocol.AnalysisResult{Session: r.SessionID, Payload: r.Payload})
	return true
}

// onTick runs a sweep on the event loop and waits for it to finish.
func (b *Broker) onTick(ctx context.Context) {
	done := make(chan struct{})
	select {
	case b.events <- evTick{done: done}:
		<-done
	case <-ctx.Done():
	case <-b.done:
	}
}

// deliver is called from job goroutines.
func (b *Broker) deliver(r JobResult) bool {
	reply := make(chan bool, 1)
	if !b.post(evJobDone{result: r, reply: reply}) {
		return false
	}
	return <-reply
}

// inboundRouter dispatches a decoded message from session id.
type inboundRouter struct {
	b  *Broker
	id string
}

func (r inboundRouter) VisitLivenessAck(protocol.LivenessAck) {
	r.b.liveness.Acknowledge(r.id)
}

func (r inboundRouter) VisitSessionClose(protocol.SessionClose) {
	r.b.closeSession(r.id, ReasonClientClose, true)
}

func (r inboundRouter) VisitAnalysisRequest(m protocol.AnalysisRequest) {
	jobID := r.b.dispatcher.Submit(JobRequest{
		SessionID: r.id,
		Source:    model.JobSourceWebSocket,
		Input: analyzer.Input{
			CSV:          m.CSV,
			Infer:        m.Infer,
			ProductField: m.ProductField,
			ReviewField:  m.ReviewField,
		},
	})
	r.b.logger.Info("Analysis submitted", "session_id", r.id, "job_id", jobID)
}

var _ protocol.InboundVisitor = inboundRouter{}

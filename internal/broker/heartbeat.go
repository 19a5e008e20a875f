package broker

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultHeartbeatPeriod is the interval between liveness sweeps.
const DefaultHeartbeatPeriod = 60 * time.Second

// HeartbeatScheduler calls a tick function once per period until stopped.
type HeartbeatScheduler struct {
	clock  clockwork.Clock
	period time.Duration
	onTick func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHeartbeatScheduler creates a stopped scheduler.
func NewHeartbeatScheduler(clock clockwork.Clock, period time.Duration, onTick func(ctx context.Context)) *HeartbeatScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if period <= 0 {
		period = DefaultHeartbeatPeriod
	}
	return &HeartbeatScheduler{
		clock:  clock,
		period: period,
		onTick: onTick,
	}
}

// Period returns the tick interval.
func (h *HeartbeatScheduler) Period() time.Duration {
	return h.period
}

// Start begins ticking. It returns false if the scheduler is already running.
func (h *HeartbeatScheduler) Start() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan struct{})

	ticker := h.clock.NewTicker(h.period)
	go h.run(ctx, ticker, h.done)
	return true
}

// Stop cancels the ticker and waits for the tick goroutine to exit. No tick
// runs after Stop returns. Stopping a stopped scheduler is a no-op.
func (h *HeartbeatScheduler) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the scheduler is ticking.
func (h *HeartbeatScheduler) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancel != nil
}

func (h *HeartbeatScheduler) run(ctx context.Context, ticker clockwork.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			// A tick and a cancellation can be ready together.
			if ctx.Err() != nil {
				return
			}
			h.onTick(ctx)
		}
	}
}

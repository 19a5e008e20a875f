// Package broker implements the real-time session broker.
//
// The package implements:
//   - Registry: maps session identity to its connection
//   - LivenessTracker: the set of sessions awaiting a heartbeat acknowledgment
//   - HeartbeatScheduler: a cancellable ticker driving liveness sweeps
//   - JobDispatcher: runs the Analyzer per request and routes results back
//   - Sender: failure-swallowing delivery of one message to one connection
//   - Broker: idempotent start/stop and the per-connection receive loop
//
// A single event-loop goroutine owns the Registry and the LivenessTracker.
// Receive loops, heartbeat ticks and job completions post events to it, so
// neither structure needs locking. Network writes are queued by the Conn
// implementation and never block the loop.
package broker

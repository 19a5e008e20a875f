package broker

import "sort"

// LivenessTracker holds the sessions that were probed and have not
// acknowledged yet. Like Registry it belongs to the event loop.
type LivenessTracker struct {
	awaiting map[string]struct{}
}

// NewLivenessTracker creates an empty tracker.
func NewLivenessTracker() *LivenessTracker {
	return &LivenessTracker{awaiting: make(map[string]struct{})}
}

// MarkAwaiting adds id to the awaiting set.
func (l *LivenessTracker) MarkAwaiting(id string) {
	l.awaiting[id] = struct{}{}
}

// Acknowledge removes id if present. The close path and an ack can both
// remove the same id, so an absent id is not an error.
func (l *LivenessTracker) Acknowledge(id string) {
	delete(l.awaiting, id)
}

// IsAwaiting reports whether id has an unanswered probe.
func (l *LivenessTracker) IsAwaiting(id string) bool {
	_, ok := l.awaiting[id]
	return ok
}

// SnapshotAndClear returns the awaiting ids, sorted, and empties the set.
func (l *LivenessTracker) SnapshotAndClear() []string {
	ids := make([]string, 0, len(l.awaiting))
	for id := range l.awaiting {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	clear(l.awaiting)
	return ids
}

// Len returns the number of awaiting sessions.
func (l *LivenessTracker) Len() int {
	return len(l.awaiting)
}

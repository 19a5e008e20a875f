package broker

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Session is a registered client connection.
type Session struct {
	ID          string
	Conn        Conn
	ConnectedAt time.Time

	seq uint64
}

// Registry maps session identity to connection. It is owned by the broker
// event loop and is not safe for concurrent use.
type Registry struct {
	sessions map[string]*Session
	seq      uint64
	newID    func() string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		newID:    uuid.NewString,
	}
}

// Register stores conn under a fresh session identity and returns it.
func (r *Registry) Register(conn Conn, now time.Time) string {
	id := r.newID()
	for r.sessions[id] != nil {
		id = r.newID()
	}
	r.seq++
	r.sessions[id] = &Session{ID: id, Conn: conn, ConnectedAt: now, seq: r.seq}
	return id
}

// Lookup returns the connection registered under id.
func (r *Registry) Lookup(id string) (Conn, bool) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return s.Conn, true
}

// Get returns a copy of the session registered under id.
func (r *Registry) Get(id string) (Session, bool) {
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Unregister removes id. Removing an absent id is a no-op.
func (r *Registry) Unregister(id string) {
	delete(r.sessions, id)
}

// Active returns a snapshot of the registered sessions in registration
// order. Later mutations do not affect the returned slice.
func (r *Registry) Active() []Session {
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}

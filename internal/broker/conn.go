package broker

// Conn is a message-oriented client connection.
//
// WriteMessage must not block on network I/O; Close must be idempotent and
// must let messages queued before it still reach the peer.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

package broker

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/review-sentiment/backend/internal/model"
)

const waitFor = 2 * time.Second

// fakeConn records writes and closes in order and feeds queued frames to
// the receive loop.
type fakeConn struct {
	mu     sync.Mutex
	ops    []string
	sent   []wireMsg
	closed bool

	inbox    chan []byte
	closedCh chan struct{}
}

type wireMsg struct {
	Header    string  `json:"header"`
	ClientKey string  `json:"clientKey"`
	Data      *string `json:"data"`
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbox:    make(chan []byte, 16),
		closedCh: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.inbox:
		return data, nil
	case <-c.closedCh:
		return nil, model.ErrConnClosed
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return model.ErrConnClosed
	}
	var m wireMsg
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	c.sent = append(c.sent, m)
	c.ops = append(c.ops, "write:"+m.Header)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.ops = append(c.ops, "close")
		close(c.closedCh)
	}
	return nil
}

func (c *fakeConn) send(format string, args ...any) {
	c.inbox <- []byte(fmt.Sprintf(format, args...))
}

func (c *fakeConn) messages() []wireMsg {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]wireMsg(nil), c.sent...)
}

func (c *fakeConn) headers() []string {
	var out []string
	for _, m := range c.messages() {
		out = append(out, m.Header)
	}
	return out
}

func (c *fakeConn) operations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ops...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) count(header string) int {
	n := 0
	for _, h := range c.headers() {
		if h == header {
			n++
		}
	}
	return n
}

func waitForCount(t *testing.T, c *fakeConn, header string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return c.count(header) >= n }, waitFor, 5*time.Millisecond,
		"waiting for %d %s messages", n, header)
}

// panicConn blows up on every write.
type panicConn struct{ *fakeConn }

func (c *panicConn) WriteMessage([]byte) error {
	panic("write on torn-down socket")
}

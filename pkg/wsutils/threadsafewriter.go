package wsutils

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Time allowed to flush one message to the peer.
const writeWait = 10 * time.Second

// ThreadSafeWriter serializes writes to a single websocket connection.
// gorilla/websocket allows at most one concurrent writer per connection,
// while room broadcasts and direct replies may fan in from many goroutines.
type ThreadSafeWriter struct {
	*websocket.Conn
	mu sync.Mutex
}

func (t *ThreadSafeWriter) WriteJSON(val any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.Conn.WriteJSON(val)
}

func (t *ThreadSafeWriter) ReadJSON(val any) error {
	return t.Conn.ReadJSON(val)
}

func (t *ThreadSafeWriter) Close() error {
	return t.Conn.Close()
}

func NewThreadSafeWriter(conn *websocket.Conn) *ThreadSafeWriter {
	return &ThreadSafeWriter{
		Conn: conn,
	}
}

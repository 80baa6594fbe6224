package socket

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/webwatch/platform/internal/signaling"
)

// Conn is the write side of one websocket. wsutils.ThreadSafeWriter
// satisfies it in production; tests plug in a recording fake.
type Conn interface {
	WriteJSON(val any) error
	Close() error
}

// Peer is one live connection with its registry-assigned identity. The id
// is stable for the connection's lifetime and is what room membership and
// relay addressing refer to.
type Peer struct {
	id   string
	conn Conn
}

func (p *Peer) ID() string { return p.id }

// Send writes one event envelope to the peer's connection.
func (p *Peer) Send(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return p.conn.WriteJSON(&Envelope{Event: event, Data: raw})
}

// Registry is the sole source of truth for which connections are alive.
type Registry struct {
	mu    sync.RWMutex
	peers map[string]*Peer
}

func NewRegistry() *Registry {
	return &Registry{
		peers: make(map[string]*Peer),
	}
}

// Add allocates a fresh identity for a connection and tracks it.
func (r *Registry) Add(conn Conn) *Peer {
	peer := &Peer{
		id:   uuid.NewString(),
		conn: conn,
	}
	r.mu.Lock()
	r.peers[peer.id] = peer
	r.mu.Unlock()
	return peer
}

// Remove forgets a connection. Relays resolving the id afterwards treat it
// as gone and drop the message.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.peers, id)
	r.mu.Unlock()
}

func (r *Registry) Get(id string) (signaling.Peer, bool) {
	r.mu.RLock()
	peer, ok := r.peers[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return peer, true
}

// All snapshots every live peer, in no particular order.
func (r *Registry) All() []signaling.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]signaling.Peer, 0, len(r.peers))
	for _, peer := range r.peers {
		out = append(out, peer)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

var _ signaling.PeerSet = (*Registry)(nil)

package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// room is the set of sockets watching one auction.
type room struct {
	mu    sync.RWMutex
	conns map[*clientConn]struct{}
}

func newRoom() *room {
	return &room{conns: make(map[*clientConn]struct{})}
}

func (r *room) add(c *clientConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c] = struct{}{}
}

func (r *room) remove(c *clientConn) {
	r.mu.Lock()
	delete(r.conns, c)
	r.mu.Unlock()
	c.rawConn.Close()
}

// broadcast writes msg to every socket in the room. Socket I/O happens on a
// snapshot so a slow or dead peer never blocks the lock; writes that fail
// evict the peer.
func (r *room) broadcast(msg []byte) {
	r.mu.RLock()
	snapshot := make([]*clientConn, 0, len(r.conns))
	for c := range r.conns {
		snapshot = append(snapshot, c)
	}
	r.mu.RUnlock()

	var dead []*clientConn
	for _, c := range snapshot {
		if err := c.write(websocket.TextMessage, msg); err != nil {
			dead = append(dead, c)
		}
	}
	for _, c := range dead {
		r.remove(c)
	}
}

package ws

import (
	"sync"
)

// Hub tracks the live viewers of each auction. Rooms are created on first
// join and looked up on every broadcast from the Redis subscriber.
type Hub struct {
	rooms sync.Map // auctionID -> *room
}

func NewHub() *Hub { return &Hub{} }

// Broadcast fans a frame out to everyone watching one auction. Unknown
// auction ids are dropped silently: nobody is watching.
func (h *Hub) Broadcast(auctionID string, msg []byte) {
	if v, ok := h.rooms.Load(auctionID); ok {
		v.(*room).broadcast(msg)
	}
}

func (h *Hub) Join(auctionID string, c *clientConn) {
	v, _ := h.rooms.LoadOrStore(auctionID, newRoom())
	v.(*room).add(c)
}

func (h *Hub) Leave(auctionID string, c *clientConn) {
	if v, ok := h.rooms.Load(auctionID); ok {
		v.(*room).remove(c)
	}
}

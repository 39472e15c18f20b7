package stream

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Notification is the message pushed to subscribers after every journal
// publication. Clients use the sequence number as a cue to fetch the
// actual changes since their own checkpoint.
type Notification struct {
	Sequence uint64 `json:"sequence"`
}

// Hub tracks live websocket subscribers and fans journal notifications
// out to them. A slow subscriber never blocks the producer: each
// connection has a bounded queue and falls behind by dropping
// notifications, which is safe because a newer sequence number subsumes
// the cue value of any it replaced.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*conn
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]*conn)}
}

type conn struct {
	id   string
	ws   *websocket.Conn
	send chan Notification
	hub  *Hub
}

// Register adopts a websocket connection, starting its read and write
// loops. The connection is dropped from the hub when either loop exits.
func (h *Hub) Register(ws *websocket.Conn) {
	c := &conn{
		id:   uuid.New().String(),
		ws:   ws,
		send: make(chan Notification, 16),
		hub:  h,
	}

	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()

	go c.writeLoop()
	c.readLoop()
}

// Broadcast queues a notification for every subscriber.
func (h *Hub) Broadcast(seq uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.conns {
		select {
		case c.send <- Notification{Sequence: seq}:
		default:
			// Queue full; the subscriber will catch up from a later
			// notification.
		}
	}
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	// Closing send channels under the write lock keeps Broadcast, which
	// sends under the read lock, from racing the close.
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.conns {
		close(c.send)
	}
	h.conns = make(map[string]*conn)
}

func (h *Hub) drop(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, present := h.conns[c.id]; present {
		delete(h.conns, c.id)
		close(c.send)
	}
}

func (c *conn) writeLoop() {
	for n := range c.send {
		if err := c.ws.WriteJSON(n); err != nil {
			log.Printf("subscriber %s write failed: %v", c.id, err)
			break
		}
	}
	c.ws.Close()
}

// readLoop discards inbound messages; the feed is one-way. It exists to
// observe the close handshake and tear the connection down.
func (c *conn) readLoop() {
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			break
		}
	}
	c.hub.drop(c)
}

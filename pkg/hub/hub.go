package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

const broadcastBuffer = 256

// Hub routes broadcasts to the clients subscribed to each message kind.
type Hub struct {
	logger *slog.Logger

	clients    map[*Client]struct{}
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	// mu lets ClientCount read clients while Run mutates them.
	mu sync.RWMutex

	done    chan struct{}
	running atomic.Bool
	dropped atomic.Int64
	skipped atomic.Int64
}

// New creates a hub. Call Run to start routing.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger.With("component", "hub"),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the routing loop. It returns when ctx is done and closes every
// client's send channel. Run must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer close(h.done)
	defer h.running.Store(false)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("viewer connected", "feeds", c.kinds.String(), "viewers", n)

		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("viewer disconnected", "viewers", n)

		case msg := <-h.broadcast:
			h.route(msg)
		}
	}
}

// route delivers msg to subscribers. A camera frame that does not fit in a
// client's buffer is skipped for that client; a full buffer on any other
// kind disconnects the client, since it would miss overlay or alert state.
func (h *Hub) route(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if c.kinds&msg.Kind == 0 {
			continue
		}
		select {
		case c.send <- msg:
		default:
			if msg.Kind == KindFrame {
				h.skipped.Add(1)
				continue
			}
			h.remove(c)
			h.logger.Warn("dropped slow viewer", "feeds", c.kinds.String())
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.remove(c)
	}
}

// Broadcast queues msg for routing. It never blocks; when the queue is
// full the message is counted in Dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.dropped.Add(1)
		h.logger.Debug("broadcast queue full", "kind", msg.Kind.String())
	}
}

// ClientCount returns the number of clients subscribed to any of kinds.
func (h *Hub) ClientCount(kinds Kind) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.kinds&kinds != 0 {
			n++
		}
	}
	return n
}

// Dropped returns messages lost because the broadcast queue was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Skipped returns camera frames not delivered to a slow client.
func (h *Hub) Skipped() int64 {
	return h.skipped.Load()
}

// IsRunning reports whether Run is active.
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

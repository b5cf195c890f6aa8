package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // Must be less than pongWait

	// maxMessageSize limits inbound messages; viewers only send control frames.
	maxMessageSize = 4 * 1024

	sendBuffer = 32
)

// Client is one viewer connection and the kinds it subscribed to.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	kinds Kind
	send  chan Message
}

// NewClient registers a viewer for kinds. It returns once the hub has
// accepted the client or stopped.
func NewClient(h *Hub, conn *websocket.Conn, kinds Kind) *Client {
	c := &Client{
		hub:   h,
		conn:  conn,
		kinds: kinds,
		send:  make(chan Message, sendBuffer),
	}
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
	return c
}

// Kinds returns the client's subscriptions.
func (c *Client) Kinds() Kind {
	return c.kinds
}

// Run pumps messages to the viewer until the connection closes.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump only watches for disconnects and pongs.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump owns all writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			op := websocket.TextMessage
			if msg.binary() {
				op = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(op, msg.Data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

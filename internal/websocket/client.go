package websocket

import (
	"time"

	"lamdam-be/internal/repository/specification"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	// pings go out before the peer's read deadline lapses
	pingPeriod = pongWait * 9 / 10

	// Inbound frames are only control frames and the occasional keepalive.
	maxInboundBytes = 512
	outboundQueue   = 256
)

// Client is one browser tab subscribed to curation events.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn

	// Viewer decides which record events the connection may see
	Viewer specification.Viewer

	// Outbound frames. Only the hub closes it.
	Send chan []byte
}

// ServeWs attaches the connection to the hub and blocks until the peer goes
// away or the hub drops it.
func ServeWs(hub *Hub, conn *websocket.Conn, viewer specification.Viewer) {
	c := &Client{Hub: hub, Conn: conn, Viewer: viewer, Send: make(chan []byte, outboundQueue)}
	hub.register <- c

	go c.pushLoop()
	c.drainLoop()
}

func (c *Client) extendReadDeadline(string) error {
	return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
}

func (c *Client) write(kind int, payload []byte) error {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(kind, payload)
}

// drainLoop keeps reading so pongs and close frames get handled. Anything
// the browser sends is discarded.
func (c *Client) drainLoop() {
	defer func() {
		c.Hub.unregister <- c
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxInboundBytes)
	_ = c.extendReadDeadline("")
	c.Conn.SetPongHandler(c.extendReadDeadline)

	for {
		_, _, err := c.Conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{"user_id": c.Viewer.ID, "error": err.Error()})
		}
		return
	}
}

// pushLoop writes queued events, one JSON document per text frame, and
// pings the peer between them.
func (c *Client) pushLoop() {
	keepalive := time.NewTicker(pingPeriod)
	defer func() {
		keepalive.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case frame, open := <-c.Send:
			if !open {
				_ = c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.write(websocket.TextMessage, frame); err != nil {
				c.Hub.logger.Debug("Client", "Write failed", map[string]interface{}{"user_id": c.Viewer.ID, "error": err.Error()})
				return
			}
		case <-keepalive.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package websocket

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// MessageHandler receives inbound frames. The returned bytes, if any, are sent back to the
// same client only.
type MessageHandler func(message []byte) []byte

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// SessionID is the dashboard this connection listens to.
	SessionID string

	// Buffered channel of outbound messages. Closed by the hub only.
	send chan []byte

	onMessage MessageHandler
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID string, onMessage MessageHandler) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		SessionID: sessionID,
		send:      make(chan []byte, sendBuffer),
		onMessage: onMessage,
	}
}

// reply queues a direct answer. A full buffer drops it; the hub disconnects slow clients.
func (c *Client) reply(message []byte) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c.SessionID][c]; !ok {
		return
	}
	select {
	case c.send <- message:
	default:
	}
}

// readPump pumps inbound frames to the message handler until the peer goes away.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
			}
			return
		}
		if c.onMessage == nil {
			continue
		}
		if out := c.onMessage(message); out != nil {
			c.reply(out)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
// Every queued message goes out as its own frame so each stays valid JSON.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.logger.Debug("Client", "Ping failed", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
				return
			}
		}
	}
}

// ServeWs registers the connection and blocks until it closes.
func ServeWs(hub *Hub, conn *websocket.Conn, sessionID string, onMessage MessageHandler) {
	client := NewClient(hub, conn, sessionID, onMessage)
	if !hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client is one authenticated websocket connection.
type Client struct {
	ID       string
	UserID   int
	Nickname string

	hub    *Hub
	router *Router
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, router *Router, conn *websocket.Conn, userID int, nickname string) *Client {
	return &Client{
		ID:       uuid.NewString(),
		UserID:   userID,
		Nickname: nickname,
		hub:      hub,
		router:   router,
		conn:     conn,
		send:     make(chan []byte, 256),
	}
}

// SendEvent delivers an event to this connection only.
func (c *Client) SendEvent(event ServerEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event for client %s: %v", event.Type, c.ID, err)
		return
	}
	c.enqueue(data)
}

func (c *Client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("send buffer full for client %s, dropping event", c.ID)
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// ReadPump reads inbound events and dispatches them one at a time, so a
// single connection's events are handled in the order they arrived.
func (c *Client) ReadPump() {
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
				log.Printf("client %s read error: %v", c.ID, err)
			}
			break
		}

		var event ClientEvent
		if err := json.Unmarshal(message, &event); err != nil {
			c.SendEvent(ServerEvent{Type: EventError, Payload: ErrorPayload{Message: "malformed event"}})
			continue
		}

		c.router.Dispatch(context.Background(), c, event)
	}
}

// WritePump flushes queued events and keeps the connection alive with pings.
func (c *Client) WritePump() {
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Drain anything queued behind the first message, one event
			// per line so clients can split the frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

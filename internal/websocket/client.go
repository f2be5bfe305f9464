package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound watch commands
	maxMessageSize = 512

	// sendBuffer is how many events may queue for a slow connection before it is dropped
	sendBuffer = 256

	// maxWatched caps the orders a single connection may watch
	maxWatched = 100
)

// Inbound command actions
const (
	ActionWatch   = "watch"
	ActionUnwatch = "unwatch"
)

// Command is a client-to-server frame. Watching narrows the connection to
// events about the listed EMI orders; unwatching the last one restores the
// default of receiving every event for the user.
type Command struct {
	Action     string `json:"action"`
	EmiOrderID string `json:"emiOrderId"`
}

// Client is one websocket connection of an authenticated user
type Client struct {
	id        string
	userID    string
	conn      *websocket.Conn
	hub       *Hub
	send      chan []byte
	closed    bool
	watching  map[string]struct{}
	mu        sync.RWMutex
	closeOnce sync.Once
}

// NewClient creates a client for userID on conn
func NewClient(conn *websocket.Conn, userID string, hub *Hub) *Client {
	return &Client{
		id:       uuid.New().String(),
		userID:   userID,
		conn:     conn,
		hub:      hub,
		send:     make(chan []byte, sendBuffer),
		watching: make(map[string]struct{}),
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() string {
	return c.id
}

// UserID returns the ID of the user owning the connection
func (c *Client) UserID() string {
	return c.userID
}

// Watches reports whether the connection wants events for emiOrderID
func (c *Client) Watches(emiOrderID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.watching) == 0 {
		return true
	}
	_, ok := c.watching[emiOrderID]
	return ok
}

// Watch narrows the connection to events for the given orders
func (c *Client) Watch(emiOrderIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range emiOrderIDs {
		if len(c.watching) >= maxWatched {
			return
		}
		c.watching[id] = struct{}{}
	}
}

// Unwatch stops narrowing to an order
func (c *Client) Unwatch(emiOrderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.watching, emiOrderID)
}

// Send queues a message to be sent to the client without blocking
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientClosed
	}
}

// Close closes the client connection. Safe to call more than once.
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		closeErr = c.conn.Close()
	})
	return closeErr
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// handleCommand applies one inbound frame. Malformed frames are ignored.
func (c *Client) handleCommand(message []byte) {
	var cmd Command
	if err := json.Unmarshal(message, &cmd); err != nil {
		log.Debug().Err(err).Str("client_id", c.id).Msg("Ignoring malformed websocket frame")
		return
	}
	id, err := uuid.Parse(cmd.EmiOrderID)
	if err != nil {
		log.Debug().Str("client_id", c.id).Str("emi_order_id", cmd.EmiOrderID).Msg("Ignoring command with invalid EMI order ID")
		return
	}

	switch cmd.Action {
	case ActionWatch:
		c.Watch(id.String())
	case ActionUnwatch:
		c.Unwatch(id.String())
	default:
		log.Debug().Str("client_id", c.id).Str("action", cmd.Action).Msg("Ignoring unknown websocket action")
	}
}

// ReadPump applies watch commands until the connection drops, then
// unregisters the client. Run it in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Str("user_id", c.userID).
					Msg("WebSocket unexpected close")
			}
			return
		}
		if msgType == websocket.TextMessage {
			c.handleCommand(message)
		}
	}
}

// WritePump drains queued events to the connection and keeps it alive with
// pings. Run it in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Str("user_id", c.userID).
					Msg("WebSocket write error")
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

package ws

import (
	"sync"
	"time"

	"grievchat/internal/entity"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is a single WebSocket connection from a citizen or a department
// operator. A connection belongs to at most one complaint room.
type Client struct {
	ConnId   string
	UserId   string
	Name     string
	UserType entity.SenderType

	room string
	hub  IHub
	conn *websocket.Conn

	// sendMu guards send against the close on unregister; a broadcast
	// racing the disconnect must drop the message, not panic.
	sendMu sync.Mutex
	closed bool
	send   chan []byte
}

func NewClient(userType entity.SenderType, userId, name string, hub IHub, conn *websocket.Conn) *Client {
	return &Client{
		ConnId:   uuid.New().String(),
		UserId:   userId,
		Name:     name,
		UserType: userType,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
	}
}

// Room returns the complaint number of the room this connection joined,
// or the empty string before any join.
func (c *Client) Room() string {
	return c.room
}

// Send queues a message for delivery. Delivery is best-effort: a client
// whose buffer is full, or that has already disconnected, is skipped
// rather than blocking or panicking the caller.
func (c *Client) Send(message []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once, ending WritePump.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump pumps incoming frames to the handler until the connection drops,
// then unregisters the client. Runs on the connection's goroutine.
func (c *Client) ReadPump(handler func(data []byte)) {
	defer func() {
		c.hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		handler(data)
	}
}

// WritePump serializes all writes to the connection and keeps it alive with
// pings. Should be started in its own goroutine before ReadPump.
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

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

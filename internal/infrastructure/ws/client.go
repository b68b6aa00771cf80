package ws

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/xenitV1/owl-chat/internal/infrastructure/metrics"
)

// Client is the server-side handle for one live connection. A user may
// hold several clients at once (multi-tab, multi-device); each joins and
// leaves rooms independently.
type Client struct {
	conn     *connWrapper
	send     chan *ServerEvent
	mu       sync.Mutex
	closed   bool
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func NewClient(conn *websocket.Conn, userID, username string, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 64 // buffered to avoid dead-locks on slow clients
	}
	return &Client{
		conn:     newConnWrapper(conn),
		send:     make(chan *ServerEvent, sendBuffer),
		ID:       uuid.NewString(),
		UserID:   userID,
		Username: username,
	}
}

// Send enqueues an event without blocking the caller. A full buffer means
// the client is too slow; the event is dropped and counted. Sends after
// teardown are discarded: persistence goroutines, history replay, and
// the broadcast bus may all outlive the connection that spawned them.
func (c *Client) Send(evt *ServerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- evt:
	default:
		metrics.DroppedSendsTotal.Inc()
	}
}

// closeSend tears the send channel down exactly once. Only the core's
// disconnect path calls it, after the connection has left every room.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump reads frames until the connection dies, handing each decoded
// event to the core. It owns unregistration on exit.
func (c *Client) ReadPump(core *Core) {
	defer func() {
		core.Unregister() <- c
		_ = c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				core.logger.Warnw("ws read error", "connection", c.ID, "error", err)
			}
			break
		}

		event, err := DecodeInbound(raw)
		if err != nil {
			// Malformed frames are rejected at the boundary; the sender
			// alone hears about it.
			c.Send(NewErrorEvent("", "BAD_EVENT", err.Error()))
			continue
		}

		core.Inbound() <- inbound{client: c, event: event}
	}
}

// WritePump drains the send channel onto the wire. Closing the channel
// terminates it.
func (c *Client) WritePump(core *Core) {
	defer func() {
		_ = c.conn.Close()
	}()

	for evt := range c.send {
		if err := c.conn.WriteJSON(evt); err != nil {
			core.logger.Warnw("ws write error", "connection", c.ID, "error", err)
			break
		}
	}
}

package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/arclight-ai/agentcore/pkg/protocol"
)

const (
	clientSendBuffer = 64
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
)

// clientFrame is the wire shape of a client-to-server message: one of
// the protocol.C2S* types plus an opaque payload.
type clientFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client wraps one WebSocket connection: a buffered send channel feeding
// a dedicated write-pump goroutine, and a read pump that decodes
// incoming C2S frames and hands them to the Server. Follows the same
// subscriber idiom as registerClient/unregisterClient: one outbound
// channel per connection, fed by BroadcastEvent, drained independently
// of the connection's read loop so a slow client never blocks the
// broadcaster.
type Client struct {
	id        string
	sessionID string
	conn      *websocket.Conn
	send      chan *protocol.EventFrame
	server    *Server
}

// NewClient wraps conn for use with Server s. sessionID may be empty;
// it is assigned once the client's first c2s:message frame creates or
// resumes a session.
func NewClient(conn *websocket.Conn, s *Server) *Client {
	return &Client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan *protocol.EventFrame, clientSendBuffer),
		server: s,
	}
}

// SendEvent queues a frame for delivery, dropping it if the client's
// send buffer is full rather than blocking the caller.
func (c *Client) SendEvent(f protocol.EventFrame) {
	select {
	case c.send <- &f:
	default:
		slog.Warn("gateway.client_send_buffer_full", "client", c.id)
	}
}

// Run drives the connection until it closes or ctx is cancelled: a
// write-pump goroutine drains c.send (plus a ping ticker), while this
// goroutine reads and dispatches inbound frames.
func (c *Client) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)

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
		var f clientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			c.SendEvent(*protocol.NewEvent(protocol.S2CError, map[string]string{"error": "malformed frame"}))
			continue
		}
		c.server.handleClientFrame(ctx, c, f)
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
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

// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/Tyrowin/livechat/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client represents a WebSocket client connection in the chat system.
// It manages the connection state, message sending channel, hub reference,
// and client address information.
type Client struct {
	id             string
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	addr           string
	maxMessageSize int64
	rateLimiter    *rate.Limiter
	rateLimit      RateLimitConfig
	logger         *slog.Logger
}

// NewClient creates a Client with a fresh connection id. The client's send
// channel is buffered to cfg.SendBufferSize frames.
func NewClient(conn *websocket.Conn, hub *Hub, addr string, cfg Config) *Client {
	cfg = cfg.Sanitize()
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	id := uuid.NewString()
	logger := slog.Default()
	if hub != nil {
		logger = hub.logger
	}

	return &Client{
		id:             id,
		conn:           conn,
		send:           make(chan []byte, cfg.SendBufferSize),
		hub:            hub,
		addr:           addr,
		maxMessageSize: cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		rateLimit:      cfg.RateLimit,
		logger:         logger.With("conn", id),
	}
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warn("error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Warn("error setting read deadline in pong handler", "error", err)
		}
		return nil
	})
}

// logReadError records why the read loop is ending.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.Warn("message exceeded maximum size", "addr", c.addr, "limit", c.maxMessageSize)

	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		c.logger.Debug("client disconnected", "addr", c.addr, "reason", err)

	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.logger.Debug("client connection closed", "addr", c.addr, "reason", err)

	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		c.logger.Warn("unexpected websocket close", "addr", c.addr, "error", err)

	default:
		c.logger.Debug("websocket read ended", "addr", c.addr, "error", err)
	}
}

// allow reports whether the client is within its event rate.
func (c *Client) allow() bool {
	if c.rateLimiter != nil && !c.rateLimiter.Allow() {
		c.logger.Warn("rate limit exceeded; discarding event",
			"addr", c.addr,
			"burst", c.rateLimit.Burst,
			"interval", c.rateLimit.RefillInterval)
		return false
	}
	return true
}

// processMessage decodes a frame and queues it for the hub. Malformed frames
// are logged and dropped.
func (c *Client) processMessage(frame []byte) bool {
	event, err := protocol.DecodeInbound(frame)
	if err != nil {
		c.logger.Warn("dropping invalid frame", "addr", c.addr, "error", err)
		return false
	}

	return c.hub.submit(c, event)
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.logger.Warn("error closing connection in readPump", "error", err)
		}
	}()

	c.setupReadConnection()

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if !c.allow() {
			continue
		}

		c.processMessage(frame)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.logger.Warn("error closing connection in writePump", "error", err)
	}
}

// handleMessage writes one frame and returns false if the connection should be closed
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Warn("error setting write deadline", "error", err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Warn("error writing message", "addr", c.addr, "error", err)
		}
		return false
	}
	return true
}

// writeCloseMessage sends a close frame to the client
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Warn("error writing close message", "addr", c.addr, "error", err)
		}
	}
	return false
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Warn("error setting write deadline for ping", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug("error writing ping", "addr", c.addr, "error", err)
		return false
	}
	return true
}

// isExpectedCloseError reports errors that are routine while a socket is
// being torn down.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}

// Package client is the terminal front end for the chat server: a WebSocket
// session speaking the envelope protocol and a bubbletea model on top of it.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/livechat/internal/protocol"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
	sendQueueSize    = 64
)

var (
	// ErrSessionClosed is returned by Send after Close or a write failure.
	ErrSessionClosed = errors.New("session closed")
	// ErrSendQueueFull is returned when the writer has fallen behind.
	ErrSendQueueFull = errors.New("send queue full")
)

// Conn is the part of a session the UI depends on. Send must not block:
// events reach the server in the order Send accepted them.
type Conn interface {
	Send(event protocol.Inbound) error
	Next() (protocol.Outbound, error)
	Close() error
}

// Session is one WebSocket connection to the chat server. A single writer
// goroutine drains the send queue, so frames go out in Send order. Next must
// be called from a single goroutine.
type Session struct {
	conn      *websocket.Conn
	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// ServerURL turns a host:port, http(s) or ws(s) address into the server's
// WebSocket endpoint.
func ServerURL(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", errors.New("empty server address")
	}
	if !strings.Contains(addr, "://") {
		addr = "ws://" + addr
	}

	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse server address: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", addr)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Dial opens a session. origin is sent as the Origin header, which the
// server checks against its allow-list.
func Dial(ctx context.Context, addr, origin string, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	endpoint, err := ServerURL(addr)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}

	logger.Info("connecting", "url", endpoint)
	conn, resp, err := dialer.DialContext(ctx, endpoint, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	return newSession(conn, logger), nil
}

func newSession(conn *websocket.Conn, logger *slog.Logger) *Session {
	s := &Session{
		conn:   conn,
		out:    make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go s.writeLoop()
	return s
}

// Send queues one event as a single text frame. It never blocks.
func (s *Session) Send(event protocol.Inbound) error {
	frame, err := protocol.EncodeInbound(event)
	if err != nil {
		return err
	}

	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.out <- frame:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// writeLoop is the only writer of data frames. A failed write closes the
// socket, which makes Next return an error.
func (s *Session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case frame := <-s.out:
			if err := s.write(frame); err != nil {
				s.logger.Warn("write failed; closing session", "error", err)
				_ = s.Close()
				return
			}
		}
	}
}

func (s *Session) write(frame []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

// Next blocks until the server sends an event it understands. Frames that
// fail to decode are logged and skipped.
func (s *Session) Next() (protocol.Outbound, error) {
	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			return nil, err
		}

		event, err := protocol.DecodeOutbound(frame)
		if err != nil {
			s.logger.Warn("skipping frame", "error", err)
			continue
		}
		return event, nil
	}
}

// Close stops the writer, sends a close frame and closes the socket. The
// server treats this as the user leaving. Closing twice is a no-op.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}

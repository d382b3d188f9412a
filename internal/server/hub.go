// Package server coordinates client registration, chat events, and
// connection cleanup for the chat WebSocket system via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Tyrowin/livechat/internal/chat"
	"github.com/Tyrowin/livechat/internal/protocol"
)

// Hub owns the room state and every open connection. All state is touched
// only by the goroutine running Run, so events are handled one at a time.
type Hub struct {
	conns   map[*Client]struct{}
	users   *chat.Registry
	history *chat.Log
	typing  *chat.TypingSet

	register   chan *Client
	unregister chan *Client
	inbound    chan clientEvent

	connCount atomic.Int64
	userCount atomic.Int64
	histCount atomic.Int64

	now    func() time.Time
	logger *slog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// clientEvent is a decoded frame queued for the hub.
type clientEvent struct {
	client *Client
	event  protocol.Inbound
}

// Stats is a point-in-time view of the hub for health reporting.
type Stats struct {
	Connections int `json:"connections"`
	Users       int `json:"users"`
	History     int `json:"history"`
}

// NewHub creates a Hub with empty room state. The returned Hub does nothing
// until Run is started.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		conns:      make(map[*Client]struct{}),
		users:      chat.NewRegistry(),
		history:    chat.NewLog(chat.HistoryLimit),
		typing:     chat.NewTypingSet(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan clientEvent),
		now:        time.Now,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Register hands a freshly upgraded client to the hub, which starts its
// pumps. It returns false if the hub is shutting down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) submit(client *Client, event protocol.Inbound) bool {
	select {
	case h.inbound <- clientEvent{client: client, event: event}:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Stats reports current counts. Safe to call from any goroutine.
func (h *Hub) Stats() Stats {
	return Stats{
		Connections: int(h.connCount.Load()),
		Users:       int(h.userCount.Load()),
		History:     int(h.histCount.Load()),
	}
}

// Run starts the hub's main event loop. It returns after Shutdown is called.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.logger.Warn("received nil client registration; skipping")
				continue
			}
			h.attach(client)
			h.startPumps(client)

		case client := <-h.unregister:
			h.detach(client)
			h.disconnect(client)

		case ev := <-h.inbound:
			h.dispatch(ev.client, ev.event)
		}
	}
}

func (h *Hub) attach(client *Client) {
	h.conns[client] = struct{}{}
	h.publishStats()
	h.logger.Info("client connected",
		"conn", client.id,
		"addr", client.addr,
		"connections", len(h.conns))
}

func (h *Hub) startPumps(client *Client) {
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// detach removes client from the connection set and closes its queue, which
// makes its writer close the socket. Detaching twice is a no-op.
func (h *Hub) detach(client *Client) bool {
	if _, ok := h.conns[client]; !ok {
		return false
	}
	delete(h.conns, client)
	close(client.send)
	h.publishStats()
	return true
}

// dispatch routes a decoded event. Events that need a joined user are
// ignored for connections that have not joined.
func (h *Hub) dispatch(client *Client, event protocol.Inbound) {
	switch ev := event.(type) {
	case protocol.Join:
		h.join(client, ev.Username)
	case protocol.SendMessage:
		h.sendMessage(client, ev.Text)
	case protocol.TypingStart:
		h.setTyping(client, true)
	case protocol.TypingStop:
		h.setTyping(client, false)
	default:
		h.logger.Warn("unhandled event", "conn", client.id, "event", event.Event())
	}
}

func (h *Hub) join(client *Client, username string) {
	if _, exists := h.users.Lookup(client.id); exists {
		h.logger.Debug("connection joined again; overwriting registration", "conn", client.id)
	}

	user := h.users.Register(client.id, username, h.now())
	users := h.users.List()
	h.publishStats()

	h.unicast(client, protocol.ChatHistory{Messages: h.history.Snapshot()})
	h.unicast(client, protocol.UsersUpdate{Users: users})

	h.broadcast(protocol.UserJoined{User: user}, client)
	h.broadcast(protocol.UsersUpdate{Users: users}, client)

	h.logger.Info("user joined", "conn", client.id, "username", username, "users", len(users))
}

func (h *Hub) sendMessage(client *Client, text string) {
	user, ok := h.users.Lookup(client.id)
	if !ok {
		h.logger.Debug("ignoring message from connection that has not joined", "conn", client.id)
		return
	}

	msg := chat.NewMessage(user, text, h.now())
	h.history.Append(msg)
	h.publishStats()

	h.broadcast(protocol.ReceiveMessage{Message: msg}, nil)
	h.logger.Debug("message", "conn", client.id, "username", user.Username, "id", msg.ID)
}

func (h *Hub) setTyping(client *Client, typing bool) {
	user, ok := h.users.Lookup(client.id)
	if !ok {
		h.logger.Debug("ignoring typing event from connection that has not joined", "conn", client.id)
		return
	}

	if typing {
		h.typing.Start(user.Username)
	} else {
		h.typing.Stop(user.Username)
	}

	h.broadcast(protocol.UserTyping{Usernames: h.typing.List()}, client)
}

// disconnect runs the leave transition. Connections that never joined
// produce no events.
func (h *Hub) disconnect(client *Client) {
	user, ok := h.users.Unregister(client.id)
	if !ok {
		h.logger.Info("client disconnected before joining", "conn", client.id, "addr", client.addr)
		return
	}

	h.typing.Stop(user.Username)
	h.publishStats()

	h.broadcast(protocol.UserLeft{User: user}, client)
	h.broadcast(protocol.UsersUpdate{Users: h.users.List()}, client)
	h.broadcast(protocol.UserTyping{Usernames: h.typing.List()}, client)

	h.logger.Info("user left", "conn", client.id, "username", user.Username, "users", h.users.Len())
}

func (h *Hub) unicast(client *Client, event protocol.Outbound) {
	payload, ok := h.encode(event)
	if !ok {
		return
	}
	if !h.enqueue(client, payload) {
		h.evict(client)
	}
}

// broadcast sends event to every open connection except the given one. A nil
// except delivers to all connections.
func (h *Hub) broadcast(event protocol.Outbound, except *Client) {
	payload, ok := h.encode(event)
	if !ok {
		return
	}

	var failed []*Client
	for client := range h.conns {
		if client == except {
			continue
		}
		if !h.enqueue(client, payload) {
			failed = append(failed, client)
		}
	}

	for _, client := range failed {
		h.evict(client)
	}
}

func (h *Hub) encode(event protocol.Outbound) ([]byte, bool) {
	payload, err := protocol.EncodeOutbound(event)
	if err != nil {
		h.logger.Error("failed to encode event", "event", event.Event(), "error", err)
		return nil, false
	}
	return payload, true
}

// enqueue never blocks. It reports false when the client's queue is full.
func (h *Hub) enqueue(client *Client, payload []byte) bool {
	if _, ok := h.conns[client]; !ok {
		return true
	}

	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) evict(client *Client) {
	if h.detach(client) {
		h.logger.Warn("client removed due to full send buffer", "conn", client.id, "addr", client.addr)
	}
}

func (h *Hub) publishStats() {
	h.connCount.Store(int64(len(h.conns)))
	h.userCount.Store(int64(h.users.Len()))
	h.histCount.Store(int64(h.history.Len()))
}

// shutdownClients closes every queue and socket so the pumps exit.
func (h *Hub) shutdownClients() {
	h.logger.Info("shutting down all client connections")

	clients := make([]*Client, 0, len(h.conns))
	for client := range h.conns {
		clients = append(clients, client)
	}

	for _, client := range clients {
		h.detach(client)
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				h.logger.Warn("error closing client connection", "addr", client.addr, "error", err)
			}
		}
	}

	h.logger.Info("closed client connections", "count", len(clients))
}

// Shutdown stops the hub and waits for every client goroutine to finish or
// for ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.logger.Info("initiating hub shutdown")

	h.cancel()
	select {
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		h.logger.Info("hub shutdown completed")
		return nil
	case <-ctx.Done():
		h.logger.Warn("hub shutdown deadline reached, some goroutines may still be running")
		return ctx.Err()
	}
}

// Package server implements the HTTP and WebSocket side of the chat service.
//
// A single Hub goroutine owns the room state (online users, recent messages,
// typing indicators) and the set of open connections. Each connection runs a
// read pump that decodes frames and queues them for the hub, and a write pump
// that drains the connection's outbound queue. The implementation is split
// into files for configuration, origin checks, the hub, clients, routing, and
// HTTP handlers.
package server

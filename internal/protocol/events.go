// Package protocol defines the event envelope exchanged over the chat
// WebSocket and the typed payload for every event name.
//
// Each text frame carries one JSON envelope:
//
//	{"event": "send_message", "data": {"text": "hi"}}
//
// Inbound frames are decoded into one of the Inbound variants and validated
// before they reach the hub. Outbound frames are built with Encode.
package protocol

import (
	"encoding/json"

	"github.com/Tyrowin/livechat/internal/chat"
)

// Event is the name carried in an envelope.
type Event string

// Client to server events.
const (
	EventJoin        Event = "join"
	EventSendMessage Event = "send_message"
	EventTypingStart Event = "typing_start"
	EventTypingStop  Event = "typing_stop"
)

// Server to client events.
const (
	EventChatHistory    Event = "chat_history"
	EventUsersUpdate    Event = "users_update"
	EventUserJoined     Event = "user_joined"
	EventUserLeft       Event = "user_left"
	EventReceiveMessage Event = "receive_message"
	EventUserTyping     Event = "user_typing"
)

// Envelope is the wire frame.
type Envelope struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound is a decoded client event.
type Inbound interface {
	Event() Event
	inbound()
}

// Join registers the connection under Username.
type Join struct {
	Username string `json:"username" validate:"required"`
}

// SendMessage submits a chat message.
type SendMessage struct {
	Text string `json:"text" validate:"required"`
}

// TypingStart marks the sender as composing.
type TypingStart struct{}

// TypingStop clears the sender's composing state.
type TypingStop struct{}

func (Join) Event() Event        { return EventJoin }
func (SendMessage) Event() Event { return EventSendMessage }
func (TypingStart) Event() Event { return EventTypingStart }
func (TypingStop) Event() Event  { return EventTypingStop }

func (Join) inbound()        {}
func (SendMessage) inbound() {}
func (TypingStart) inbound() {}
func (TypingStop) inbound()  {}

// Outbound is a decoded server event, used by clients.
type Outbound interface {
	Event() Event
	outbound()
}

// ChatHistory is the backfill sent to a joining connection.
type ChatHistory struct {
	Messages []chat.Message
}

// UsersUpdate is a full presence snapshot.
type UsersUpdate struct {
	Users []chat.User
}

// UserJoined announces a new user to everyone else.
type UserJoined struct {
	User chat.User
}

// UserLeft announces a departed user to everyone else.
type UserLeft struct {
	User chat.User
}

// ReceiveMessage delivers a chat message, including back to its author.
type ReceiveMessage struct {
	Message chat.Message
}

// UserTyping is the current typing set.
type UserTyping struct {
	Usernames []string
}

func (ChatHistory) Event() Event    { return EventChatHistory }
func (UsersUpdate) Event() Event    { return EventUsersUpdate }
func (UserJoined) Event() Event     { return EventUserJoined }
func (UserLeft) Event() Event       { return EventUserLeft }
func (ReceiveMessage) Event() Event { return EventReceiveMessage }
func (UserTyping) Event() Event     { return EventUserTyping }

func (ChatHistory) outbound()    {}
func (UsersUpdate) outbound()    {}
func (UserJoined) outbound()     {}
func (UserLeft) outbound()       {}
func (ReceiveMessage) outbound() {}
func (UserTyping) outbound()     {}

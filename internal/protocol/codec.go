package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Tyrowin/livechat/internal/chat"
)

var (
	// ErrMalformedFrame is returned when a frame is not a JSON envelope.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrUnknownEvent is returned for event names outside the protocol.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrInvalidPayload is returned when the data does not match the event.
	ErrInvalidPayload = errors.New("invalid payload")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeInbound parses and validates a client frame.
func DecodeInbound(frame []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch env.Event {
	case EventJoin:
		var join Join
		if err := decodeData(env, &join); err != nil {
			return nil, err
		}
		join.Username = strings.TrimSpace(join.Username)
		if err := check(env.Event, join); err != nil {
			return nil, err
		}
		return join, nil

	case EventSendMessage:
		var msg SendMessage
		if err := decodeData(env, &msg); err != nil {
			return nil, err
		}
		if err := check(env.Event, msg); err != nil {
			return nil, err
		}
		return msg, nil

	case EventTypingStart:
		return TypingStart{}, nil

	case EventTypingStop:
		return TypingStop{}, nil

	case "":
		return nil, fmt.Errorf("%w: missing event name", ErrMalformedFrame)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

func decodeData(env Envelope, dst any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: %s has no data", ErrInvalidPayload, env.Event)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Event, err)
	}
	return nil
}

func check(event Event, payload any) error {
	if err := validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, event, err)
	}
	return nil
}

// EncodeInbound builds the frame a client sends for ev.
func EncodeInbound(ev Inbound) ([]byte, error) {
	switch v := ev.(type) {
	case Join:
		return Encode(EventJoin, v)
	case SendMessage:
		return Encode(EventSendMessage, v)
	case TypingStart, TypingStop:
		return json.Marshal(Envelope{Event: ev.Event()})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}

// Encode wraps data in an envelope for event.
func Encode(event Event, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// EncodeOutbound builds the frame the server sends for ev.
func EncodeOutbound(ev Outbound) ([]byte, error) {
	switch v := ev.(type) {
	case ChatHistory:
		return Encode(v.Event(), nonNil(v.Messages))
	case UsersUpdate:
		return Encode(v.Event(), nonNil(v.Users))
	case UserJoined:
		return Encode(v.Event(), v.User)
	case UserLeft:
		return Encode(v.Event(), v.User)
	case ReceiveMessage:
		return Encode(v.Event(), v.Message)
	case UserTyping:
		return Encode(v.Event(), nonNil(v.Usernames))
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}

// DecodeOutbound parses a server frame.
func DecodeOutbound(frame []byte) (Outbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch env.Event {
	case EventChatHistory:
		var messages []chat.Message
		if err := decodeData(env, &messages); err != nil {
			return nil, err
		}
		return ChatHistory{Messages: messages}, nil

	case EventUsersUpdate:
		var users []chat.User
		if err := decodeData(env, &users); err != nil {
			return nil, err
		}
		return UsersUpdate{Users: users}, nil

	case EventUserJoined:
		var user chat.User
		if err := decodeData(env, &user); err != nil {
			return nil, err
		}
		return UserJoined{User: user}, nil

	case EventUserLeft:
		var user chat.User
		if err := decodeData(env, &user); err != nil {
			return nil, err
		}
		return UserLeft{User: user}, nil

	case EventReceiveMessage:
		var msg chat.Message
		if err := decodeData(env, &msg); err != nil {
			return nil, err
		}
		return ReceiveMessage{Message: msg}, nil

	case EventUserTyping:
		var names []string
		if err := decodeData(env, &names); err != nil {
			return nil, err
		}
		return UserTyping{Usernames: names}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

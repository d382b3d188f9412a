package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/livechat/internal/chat"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Inbound
	}{
		{
			name:  "join trims username",
			frame: `{"event":"join","data":{"username":"  alice "}}`,
			want:  Join{Username: "alice"},
		},
		{
			name:  "join ignores extra fields",
			frame: `{"event":"join","data":{"username":"bob","joinedAt":"2024-01-01T00:00:00Z","isOnline":true}}`,
			want:  Join{Username: "bob"},
		},
		{
			name:  "send message",
			frame: `{"event":"send_message","data":{"text":"hi there"}}`,
			want:  SendMessage{Text: "hi there"},
		},
		{
			name:  "typing start without data",
			frame: `{"event":"typing_start"}`,
			want:  TypingStart{},
		},
		{
			name:  "typing stop with ignored data",
			frame: `{"event":"typing_stop","data":null}`,
			want:  TypingStop{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Event(), got.Event())
		})
	}
}

func TestDecodeInboundRejects(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		err   error
	}{
		{"not json", `hello`, ErrMalformedFrame},
		{"missing event", `{"data":{"text":"x"}}`, ErrMalformedFrame},
		{"unknown event", `{"event":"delete_everything"}`, ErrUnknownEvent},
		{"server event from client", `{"event":"receive_message","data":{}}`, ErrUnknownEvent},
		{"join without data", `{"event":"join"}`, ErrInvalidPayload},
		{"join blank username", `{"event":"join","data":{"username":"   "}}`, ErrInvalidPayload},
		{"join wrong type", `{"event":"join","data":{"username":42}}`, ErrInvalidPayload},
		{"empty text", `{"event":"send_message","data":{"text":""}}`, ErrInvalidPayload},
		{"text is array", `{"event":"send_message","data":["hi"]}`, ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tt.frame))
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestEncodeInboundDecodes(t *testing.T) {
	for _, ev := range []Inbound{
		Join{Username: "alice"},
		SendMessage{Text: "hello"},
		TypingStart{},
		TypingStop{},
	} {
		frame, err := EncodeInbound(ev)
		require.NoError(t, err)

		got, err := DecodeInbound(frame)
		require.NoError(t, err)
		assert.Equal(t, ev, got)
	}
}

func TestEncodeOutboundWireShape(t *testing.T) {
	at := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	msg := chat.Message{ID: "m1", Text: "hi", Username: "alice", UserID: "c1", Timestamp: at, Delivered: true}

	frame, err := EncodeOutbound(ReceiveMessage{Message: msg})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"event": "receive_message",
		"data": {
			"id": "m1",
			"text": "hi",
			"username": "alice",
			"userId": "c1",
			"timestamp": "2024-03-01T12:00:00Z",
			"delivered": true
		}
	}`, string(frame))

	user := chat.User{ID: "c1", Username: "alice", JoinedAt: at, IsOnline: true}
	frame, err = EncodeOutbound(UserJoined{User: user})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"event": "user_joined",
		"data": {"id": "c1", "username": "alice", "joinedAt": "2024-03-01T12:00:00Z", "isOnline": true}
	}`, string(frame))
}

func TestEncodeOutboundEmptyCollections(t *testing.T) {
	for _, ev := range []Outbound{ChatHistory{}, UsersUpdate{}, UserTyping{}} {
		frame, err := EncodeOutbound(ev)
		require.NoError(t, err)

		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		assert.Equal(t, ev.Event(), env.Event)
		assert.JSONEq(t, `[]`, string(env.Data), "empty %s must encode as an array", ev.Event())
	}
}

func TestDecodeOutbound(t *testing.T) {
	user := chat.User{ID: "c2", Username: "bob", IsOnline: true}
	for _, ev := range []Outbound{
		ChatHistory{Messages: []chat.Message{{ID: "1", Text: "a"}}},
		UsersUpdate{Users: []chat.User{user}},
		UserJoined{User: user},
		UserLeft{User: user},
		ReceiveMessage{Message: chat.Message{ID: "2", Text: "b", UserID: "c2"}},
		UserTyping{Usernames: []string{"bob"}},
	} {
		frame, err := EncodeOutbound(ev)
		require.NoError(t, err)

		got, err := DecodeOutbound(frame)
		require.NoError(t, err)
		assert.Equal(t, ev.Event(), got.Event())
	}

	_, err := DecodeOutbound([]byte(`{"event":"join","data":{"username":"x"}}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

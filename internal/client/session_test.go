package client_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/livechat/internal/client"
	"github.com/Tyrowin/livechat/internal/protocol"
	"github.com/Tyrowin/livechat/internal/server"
)

const origin = "http://localhost:3001"

func newServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := server.DefaultConfig()
	cfg.AllowedOrigins = []string{origin}

	hub := server.NewHub(logger)
	go hub.Run()
	ts := httptest.NewServer(server.NewRouter(server.NewHandler(hub, cfg, logger)))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
		ts.Close()
	})
	return ts.URL
}

func TestSessionRoundTrip(t *testing.T) {
	url := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := client.Dial(ctx, url, origin, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Send(protocol.Join{Username: "alice"}))

	ev, err := s.Next()
	require.NoError(t, err)
	require.IsType(t, protocol.ChatHistory{}, ev)

	ev, err = s.Next()
	require.NoError(t, err)
	require.IsType(t, protocol.UsersUpdate{}, ev)

	require.NoError(t, s.Send(protocol.SendMessage{Text: "hi"}))
	ev, err = s.Next()
	require.NoError(t, err)
	require.IsType(t, protocol.ReceiveMessage{}, ev)
	assert.Equal(t, "hi", ev.(protocol.ReceiveMessage).Message.Text)
	assert.Equal(t, "alice", ev.(protocol.ReceiveMessage).Message.Username)
}

func TestDialRejectedOrigin(t *testing.T) {
	url := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Dial(ctx, url, "http://evil.example", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSessionPreservesSendOrder(t *testing.T) {
	url := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := client.Dial(ctx, url, origin, nil)
	require.NoError(t, err)
	defer s.Close()

	texts := []string{"one", "two", "three", "four", "five"}
	require.NoError(t, s.Send(protocol.Join{Username: "alice"}))
	for _, text := range texts {
		require.NoError(t, s.Send(protocol.SendMessage{Text: text}))
	}

	var got []string
	for len(got) < len(texts) {
		ev, err := s.Next()
		require.NoError(t, err)
		if msg, ok := ev.(protocol.ReceiveMessage); ok {
			got = append(got, msg.Message.Text)
		}
	}
	assert.Equal(t, texts, got)
}

func TestSendAfterClose(t *testing.T) {
	url := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := client.Dial(ctx, url, origin, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	assert.ErrorIs(t, s.Send(protocol.TypingStart{}), client.ErrSessionClosed)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tyrowin/livechat/internal/client"
)

func main() {
	addr := flag.String("addr", "localhost:3001", "chat server address (host:port or ws:// URL)")
	name := flag.String("name", os.Getenv("USER"), "username to join with")
	origin := flag.String("origin", "http://localhost:3001", "Origin header sent with the WebSocket handshake")
	logPath := flag.String("log", "", "write debug logs to this file")
	flag.Parse()

	username := strings.TrimSpace(*name)
	if username == "" {
		fmt.Fprintln(os.Stderr, "a username is required: pass -name")
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *logPath != "" {
		f, err := tea.LogToFile(*logPath, "client")
		if err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	model := client.NewModel(client.Options{
		Username: username,
		Dial: func(ctx context.Context) (client.Conn, error) {
			session, err := client.Dial(ctx, *addr, *origin, logger)
			if err != nil {
				logger.Warn("dial failed", "error", err)
				return nil, err
			}
			return session, nil
		},
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if m, ok := final.(client.Model); ok {
		_ = m.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "client error: %v\n", err)
		os.Exit(1)
	}
}

// Package server constructs and starts the chat HTTP service with helpers
// that apply sensible production defaults.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// CreateServer creates and configures an HTTP server with the specified port and handler.
// It sets reasonable timeout values for production use.
func CreateServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// StartServer listens until the server is shut down. A graceful shutdown is
// not reported as an error.
func StartServer(server *http.Server, logger *slog.Logger) error {
	logger.Info("server listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ShutdownServer stops accepting requests and waits for in-flight ones until
// ctx expires. Upgraded WebSocket connections are closed by the hub instead.
func ShutdownServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	logger.Info("shutting down HTTP server")

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	logger.Info("HTTP server shutdown completed")
	return nil
}

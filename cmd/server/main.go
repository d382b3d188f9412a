package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"

	"github.com/Tyrowin/livechat/internal/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := server.NewConfigFromEnv()
	logger := server.NewLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("starting chat server",
		"port", cfg.Port,
		"allowed_origins", cfg.AllowedOrigins,
		"max_message_size", cfg.MaxMessageSize)

	hub := server.NewHub(logger)
	go hub.Run()

	handler := server.NewHandler(hub, cfg, logger)
	httpServer := server.CreateServer(cfg.Port, server.NewRouter(handler))

	go func() {
		if err := server.StartServer(httpServer, logger); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				return server.ShutdownServer(ctx, httpServer, logger)
			},
			"hub": func(ctx context.Context) error {
				return hub.Shutdown(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info("server exited", "code", exitCode)
	os.Exit(exitCode)
}

func init() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
}

// Package server wires HTTP handlers into a gin engine for the chat
// application via routing helpers.
package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// NewRouter configures and returns a gin engine with all application routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog(h.logger))

	r.GET("/", h.Liveness)
	r.GET("/health", h.Health)
	r.GET("/ws", h.WebSocket)
	r.GET("/test", h.TestPage)
	return r
}

// RequestID tags every request and response with an X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetHeader(requestIDHeader) == "" {
			ctx.Request.Header.Set(requestIDHeader, uuid.NewString())
		}
		ctx.Header(requestIDHeader, ctx.GetHeader(requestIDHeader))
		ctx.Next()
	}
}

// AccessLog writes one debug line per request.
func AccessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		logger.Debug("http request",
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"status", ctx.Writer.Status(),
			"duration", time.Since(start),
			"request_id", ctx.GetHeader(requestIDHeader))
	}
}

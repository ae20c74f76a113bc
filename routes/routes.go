// Package routes wires controllers to the HTTP router.
//
//   - api.go: /v1, /admin and health routes
//   - web.go: index page listing the endpoints
package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupAllRoutes installs middleware and every route group.
func SetupAllRoutes(router *gin.Engine, c Controllers, logger *zap.Logger) {
	setupMiddleware(router, logger)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, c)
	SetupAPIRoutes(router, c)
	SetupAdminRoutes(router, c)

	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":  "ROUTE_NOT_FOUND",
			"path":   ctx.Request.URL.Path,
			"method": ctx.Request.Method,
		})
	})
}

// NewRouter creates a gin engine with every route installed.
func NewRouter(c Controllers, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	SetupAllRoutes(router, c, logger)
	return router
}

func setupMiddleware(router *gin.Engine, logger *zap.Logger) {
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
}

// requestLogger logs each request through zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

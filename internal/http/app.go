// Package http holds what the router needs from the composition root:
// the assembled App and the Module contract for route registration.
package http

import (
	"context"
	"net/http"

	"parksmart_backend/platform/config"
	"parksmart_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// RouterConfig is the configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
}

// HealthChecker backs /api/health. A failing ping reports "degraded".
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Module mounts one feature's routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext hands modules their route groups under /api/v1.
type RouterContext struct {
	// V1 is rate limited per client IP.
	V1 *gin.RouterGroup
	// Streams is for long-lived SSE and WebSocket connections and carries
	// no rate limiter.
	Streams *gin.RouterGroup
}

// App is assembled in main and passed to router.New. Health and Metrics
// are optional.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  HealthChecker
	Metrics http.Handler
	Modules []Module
}

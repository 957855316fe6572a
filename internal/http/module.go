package http

import (
	"github.com/gin-gonic/gin"

	"github.com/lrz80/chatbot-backend-sub001/platform/config"
	"github.com/lrz80/chatbot-backend-sub001/platform/httpkit"
)

// Module represents a bounded context that can register its HTTP routes.
// Each domain module implements this interface to encapsulate its own
// route setup, keeping the main router decoupled from specific endpoints.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router group.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
type RouterContext struct {
	// Engine is the root Gin engine for modules that need engine-level access.
	Engine *gin.Engine
	// V1 is the /api/v1 route group.
	V1 *gin.RouterGroup
	// Protected is the JWT-authenticated ops group under /api/v1.
	Protected *gin.RouterGroup
	// Config is the JWT configuration for auth middleware (scoped access).
	Config config.JWTConfig
	// AuthMiddleware provides the JWT authentication middleware.
	AuthMiddleware gin.HandlerFunc
	// WebhookLimiter is the per-IP rate limiter for inbound webhook routes.
	WebhookLimiter *httpkit.IPRateLimiter
}

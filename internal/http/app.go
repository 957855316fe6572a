// Package http assembles the HTTP surface: the router, shared middleware,
// and the per-module route registration contract.
package http

import (
	"context"

	"github.com/lrz80/chatbot-backend-sub001/internal/events"
	"github.com/lrz80/chatbot-backend-sub001/platform/config"
	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// RouterConfig is the slice of configuration the router needs: the listen
// settings plus the JWT material for the ops routes.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker answers the readiness probe, typically backed by a database
// ping.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is everything the composition root hands to the router: configuration,
// infrastructure, and the domain modules that mount routes.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	EventBus events.Bus
	Modules  []Module
}

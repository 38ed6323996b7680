package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/paysync/internal/interfaces/http/handlers"
	"github.com/orris-inc/paysync/internal/interfaces/http/middleware"
)

// WebhookRouteConfig holds dependencies for gateway webhook routes.
type WebhookRouteConfig struct {
	NotificationHandler *handlers.NotificationHandler
	RateLimiter         *middleware.RateLimiter // Optional
}

// SetupWebhookRoutes configures the gateway notification endpoint.
func SetupWebhookRoutes(engine *gin.Engine, cfg *WebhookRouteConfig) {
	chain := []gin.HandlerFunc{}
	if cfg.RateLimiter != nil {
		chain = append(chain, cfg.RateLimiter.Limit())
	}
	chain = append(chain, cfg.NotificationHandler.HandleWebhook)

	engine.POST("/mp/webhook", chain...)
}

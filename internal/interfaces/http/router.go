package http

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/orris-inc/paysync/internal/infrastructure/config"
	"github.com/orris-inc/paysync/internal/interfaces/http/middleware"
	"github.com/orris-inc/paysync/internal/interfaces/http/routes"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

// Router represents the HTTP router configuration
type Router struct {
	*Container
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(db *gorm.DB, cfg *config.Config, log logger.Interface) *Router {
	return &Router{Container: NewContainer(db, cfg, log)}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CustomLogger(r.log))
	r.engine.Use(middleware.Recovery(r.log))
	r.engine.Use(middleware.SecurityHeaders())

	r.engine.GET("/health", r.hdlrs.healthHandler.HealthCheck)

	routes.SetupWebhookRoutes(r.engine, &routes.WebhookRouteConfig{
		NotificationHandler: r.hdlrs.notificationHandler,
		RateLimiter:         r.rateLimiter,
	})

	routes.SetupEntitlementRoutes(r.engine, &routes.EntitlementRouteConfig{
		EntitlementHandler: r.hdlrs.entitlementHandler,
	})
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}

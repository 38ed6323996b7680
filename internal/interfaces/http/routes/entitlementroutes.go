package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/paysync/internal/interfaces/http/handlers"
)

// EntitlementRouteConfig holds dependencies for entitlement routes.
type EntitlementRouteConfig struct {
	EntitlementHandler *handlers.EntitlementHandler
}

// SetupEntitlementRoutes configures entitlement routes.
func SetupEntitlementRoutes(engine *gin.Engine, cfg *EntitlementRouteConfig) {
	entitlements := engine.Group("/api/entitlements")
	{
		entitlements.POST("", cfg.EntitlementHandler.PrepareEntitlement)
		entitlements.GET("/:id", cfg.EntitlementHandler.GetEntitlement)
	}
}

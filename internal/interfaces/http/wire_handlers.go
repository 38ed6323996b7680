package http

import (
	"github.com/orris-inc/paysync/internal/interfaces/http/handlers"
)

// allHandlers holds all HTTP handler instances used by the application.
type allHandlers struct {
	notificationHandler *handlers.NotificationHandler
	entitlementHandler  *handlers.EntitlementHandler
	healthHandler       *handlers.HealthHandler
}

func (c *Container) initHandlers() {
	c.hdlrs = &allHandlers{
		notificationHandler: handlers.NewNotificationHandler(c.ucs.handleNotificationUC, c.log),
		entitlementHandler: handlers.NewEntitlementHandler(
			c.ucs.getEntitlementAccessUC,
			c.ucs.prepareEntitlementUC,
			c.log,
		),
		healthHandler: handlers.NewHealthHandler(c.cfg.Server.Mode),
	}
}

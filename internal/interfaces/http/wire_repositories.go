package http

import (
	"github.com/orris-inc/paysync/internal/domain/entitlement"
	"github.com/orris-inc/paysync/internal/domain/notification"
	"github.com/orris-inc/paysync/internal/domain/plan"
	"github.com/orris-inc/paysync/internal/infrastructure/repository"
)

// repositories holds all repository instances used by the application.
// Types match the return types of the repository constructors.
type repositories struct {
	entitlementRepo     entitlement.Repository
	planRepo            plan.Repository
	notificationLogRepo notification.LogRepository
}

func (c *Container) initRepositories() {
	c.repos = &repositories{
		entitlementRepo:     repository.NewEntitlementRepository(c.db, c.log),
		planRepo:            repository.NewPlanRepository(c.db, c.log),
		notificationLogRepo: repository.NewNotificationLogRepository(c.db, c.log),
	}
}

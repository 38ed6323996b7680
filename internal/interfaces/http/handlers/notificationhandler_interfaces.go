package handlers

import (
	"context"

	"github.com/orris-inc/paysync/internal/application/reconciliation"
	"github.com/orris-inc/paysync/internal/application/reconciliation/usecases"
)

// Use case interfaces for NotificationHandler - enables unit testing with mocks.

type handleNotificationUseCase interface {
	Execute(ctx context.Context, in reconciliation.Inbound) (*usecases.HandleNotificationResult, error)
}

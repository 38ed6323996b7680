package handlers

import (
	"context"

	"github.com/orris-inc/paysync/internal/application/reconciliation/usecases"
)

// Use case interfaces for EntitlementHandler - enables unit testing with mocks.

type getEntitlementAccessUseCase interface {
	Execute(ctx context.Context, id uint) (*usecases.EntitlementAccessDTO, error)
}

type prepareEntitlementUseCase interface {
	Execute(ctx context.Context, cmd usecases.PrepareEntitlementCommand) (*usecases.PrepareEntitlementResult, error)
}

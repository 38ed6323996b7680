package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/orris-inc/paysync/internal/domain/entitlement"
	"github.com/orris-inc/paysync/internal/domain/notification"
	"github.com/orris-inc/paysync/internal/domain/plan"
	apperrors "github.com/orris-inc/paysync/internal/shared/errors"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

// PrepareEntitlementCommand is issued by checkout link creation before it
// calls the gateway.
type PrepareEntitlementCommand struct {
	UserID   uint   `json:"user_id" binding:"required"`
	PlanCode string `json:"plan_code" binding:"required"`
	OrderID  string `json:"order_id" binding:"required"`
	// PreferenceID is the checkout preference already created for this
	// order, when link creation reports it back.
	PreferenceID string `json:"preference_id,omitempty"`
}

// preferenceRetries bounds re-reads when a webhook commit races the
// preference update.
const preferenceRetries = 3

// PrepareEntitlementResult carries what link creation stamps on the remote object.
type PrepareEntitlementResult struct {
	EntitlementID     uint           `json:"entitlement_id"`
	Status            string         `json:"status"`
	ExternalReference string         `json:"external_reference"`
	Metadata          map[string]any `json:"metadata"`
	PreferenceID      string         `json:"preference_id,omitempty"`
}

// PrepareEntitlementUseCase returns the entitlement of a (user, plan) pair,
// creating it inactive, and the reference that maps gateway objects back to it.
type PrepareEntitlementUseCase struct {
	entitlementRepo entitlement.Repository
	planRepo        plan.Repository
	logger          logger.Interface
}

func NewPrepareEntitlementUseCase(
	entitlementRepo entitlement.Repository,
	planRepo plan.Repository,
	logger logger.Interface,
) *PrepareEntitlementUseCase {
	return &PrepareEntitlementUseCase{
		entitlementRepo: entitlementRepo,
		planRepo:        planRepo,
		logger:          logger,
	}
}

func (uc *PrepareEntitlementUseCase) Execute(ctx context.Context, cmd PrepareEntitlementCommand) (*PrepareEntitlementResult, error) {
	if cmd.UserID == 0 {
		return nil, apperrors.NewValidationError("user_id is required")
	}
	if cmd.OrderID == "" {
		return nil, apperrors.NewValidationError("order_id is required")
	}

	p, err := uc.planRepo.GetByCode(ctx, cmd.PlanCode)
	if err != nil {
		if errors.Is(err, plan.ErrPlanNotFound) {
			return nil, apperrors.NewNotFoundError("plan not found", cmd.PlanCode)
		}
		uc.logger.Errorw("failed to get plan", "plan_code", cmd.PlanCode, "error", err)
		return nil, apperrors.NewInternalError("failed to get plan")
	}

	ent, err := uc.entitlementRepo.GetOrCreate(ctx, cmd.UserID, p.ID())
	if err != nil {
		uc.logger.Errorw("failed to get or create entitlement",
			"user_id", cmd.UserID,
			"plan_id", p.ID(),
			"error", err,
		)
		return nil, apperrors.NewInternalError("failed to prepare entitlement", fmt.Sprintf("user %d plan %s", cmd.UserID, p.Code()))
	}

	if cmd.PreferenceID != "" {
		ent, err = uc.recordPreference(ctx, ent, cmd.PreferenceID)
		if err != nil {
			return nil, err
		}
	}

	ref := notification.Reference{
		UserID:        cmd.UserID,
		EntitlementID: ent.ID(),
		OrderID:       cmd.OrderID,
		PlanCode:      p.Code(),
	}

	uc.logger.Infow("entitlement prepared for checkout",
		"entitlement_id", ent.ID(),
		"user_id", cmd.UserID,
		"plan_code", p.Code(),
	)

	return &PrepareEntitlementResult{
		EntitlementID:     ent.ID(),
		Status:            ent.Status().String(),
		ExternalReference: ref.String(),
		Metadata:          ref.Metadata(),
		PreferenceID:      ent.RemotePreferenceID(),
	}, nil
}

// recordPreference saves the preference id with the same optimistic version
// check the reconciliation commit uses, re-reading on conflict.
func (uc *PrepareEntitlementUseCase) recordPreference(ctx context.Context, ent *entitlement.Entitlement, preferenceID string) (*entitlement.Entitlement, error) {
	for attempt := 0; attempt < preferenceRetries; attempt++ {
		if attempt > 0 {
			fresh, err := uc.entitlementRepo.GetByID(ctx, ent.ID())
			if err != nil {
				uc.logger.Errorw("failed to reload entitlement", "entitlement_id", ent.ID(), "error", err)
				return nil, apperrors.NewInternalError("failed to record preference")
			}
			ent = fresh
		}

		if !ent.RecordPreference(preferenceID) {
			return ent, nil
		}

		err := uc.entitlementRepo.Update(ctx, ent)
		if err == nil {
			return ent, nil
		}
		if !errors.Is(err, entitlement.ErrConcurrentModification) {
			uc.logger.Errorw("failed to record preference",
				"entitlement_id", ent.ID(),
				"preference_id", preferenceID,
				"error", err,
			)
			return nil, apperrors.NewInternalError("failed to record preference")
		}
		uc.logger.Debugw("preference update conflicted, retrying",
			"entitlement_id", ent.ID(),
			"attempt", attempt+1,
		)
	}

	uc.logger.Warnw("preference update kept conflicting", "entitlement_id", ent.ID())
	return nil, apperrors.NewInternalError("failed to record preference", "concurrent modification")
}

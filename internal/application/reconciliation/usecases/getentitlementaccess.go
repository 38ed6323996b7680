package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/orris-inc/paysync/internal/domain/entitlement"
	"github.com/orris-inc/paysync/internal/shared/biztime"
	apperrors "github.com/orris-inc/paysync/internal/shared/errors"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

// EntitlementAccessDTO is the read model of an entitlement's access state.
type EntitlementAccessDTO struct {
	ID                  uint       `json:"id"`
	UserID              uint       `json:"user_id"`
	PlanID              uint       `json:"plan_id"`
	Status              string     `json:"status"`
	ExpiresAt           *time.Time `json:"expires_at,omitempty"`
	HasAccess           bool       `json:"has_access"`
	RemotePaymentID     string     `json:"remote_payment_id,omitempty"`
	RemotePreapprovalID string     `json:"remote_preapproval_id,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type GetEntitlementAccessUseCase struct {
	entitlementRepo entitlement.Repository
	logger          logger.Interface
}

func NewGetEntitlementAccessUseCase(entitlementRepo entitlement.Repository, logger logger.Interface) *GetEntitlementAccessUseCase {
	return &GetEntitlementAccessUseCase{
		entitlementRepo: entitlementRepo,
		logger:          logger,
	}
}

func (uc *GetEntitlementAccessUseCase) Execute(ctx context.Context, id uint) (*EntitlementAccessDTO, error) {
	ent, err := uc.entitlementRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, entitlement.ErrEntitlementNotFound) {
			return nil, apperrors.NewNotFoundError("entitlement not found")
		}
		uc.logger.Errorw("failed to get entitlement", "entitlement_id", id, "error", err)
		return nil, apperrors.NewInternalError("failed to get entitlement")
	}

	return toEntitlementAccessDTO(ent, biztime.NowUTC()), nil
}

func toEntitlementAccessDTO(ent *entitlement.Entitlement, now time.Time) *EntitlementAccessDTO {
	return &EntitlementAccessDTO{
		ID:                  ent.ID(),
		UserID:              ent.UserID(),
		PlanID:              ent.PlanID(),
		Status:              ent.Status().String(),
		ExpiresAt:           ent.ExpiresAt(),
		HasAccess:           ent.HasAccess(now),
		RemotePaymentID:     ent.RemotePaymentID(),
		RemotePreapprovalID: ent.RemotePreapprovalID(),
		UpdatedAt:           ent.UpdatedAt(),
	}
}

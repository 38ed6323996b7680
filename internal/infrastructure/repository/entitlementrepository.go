package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/paysync/internal/domain/entitlement"
	"github.com/orris-inc/paysync/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/paysync/internal/infrastructure/persistence/models"
	"github.com/orris-inc/paysync/internal/shared/db"
	apperrors "github.com/orris-inc/paysync/internal/shared/errors"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

// EntitlementRepositoryImpl implements the entitlement.Repository interface
type EntitlementRepositoryImpl struct {
	db     *gorm.DB
	txMgr  *db.TransactionManager
	mapper mappers.EntitlementMapper
	logger logger.Interface
}

// NewEntitlementRepository creates a new entitlement repository instance
func NewEntitlementRepository(gdb *gorm.DB, logger logger.Interface) entitlement.Repository {
	return &EntitlementRepositoryImpl{
		db:     gdb,
		txMgr:  db.NewTransactionManager(gdb),
		mapper: mappers.NewEntitlementMapper(),
		logger: logger,
	}
}

// GetByID retrieves an entitlement by ID
func (r *EntitlementRepositoryImpl) GetByID(ctx context.Context, id uint) (*entitlement.Entitlement, error) {
	var model models.EntitlementModel

	if err := r.txMgr.GetTx(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entitlement.ErrEntitlementNotFound
		}
		r.logger.Errorw("failed to get entitlement by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get entitlement: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map entitlement model to entity", "id", id, "error", err)
		return nil, fmt.Errorf("failed to map entitlement: %w", err)
	}

	return entity, nil
}

// GetOrCreate returns the (user, plan) entitlement, inserting an inactive
// one when missing. A concurrent insert losing the unique index race reads
// the winner's row.
func (r *EntitlementRepositoryImpl) GetOrCreate(ctx context.Context, userID, planID uint) (*entitlement.Entitlement, error) {
	var result *entitlement.Entitlement

	err := r.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		found, err := r.findByUserPlan(txCtx, userID, planID)
		if err != nil {
			return err
		}
		if found != nil {
			result = found
			return nil
		}

		ent, err := entitlement.NewEntitlement(userID, planID)
		if err != nil {
			return err
		}
		model, err := r.mapper.ToModel(ent)
		if err != nil {
			return fmt.Errorf("failed to map entitlement entity: %w", err)
		}
		if err := r.txMgr.GetTx(txCtx).Create(model).Error; err != nil {
			return err
		}
		if err := ent.SetID(model.ID); err != nil {
			return fmt.Errorf("failed to set entitlement ID: %w", err)
		}
		result = ent
		return nil
	})
	if err == nil {
		return result, nil
	}

	if apperrors.IsDuplicateError(err) {
		found, findErr := r.findByUserPlan(ctx, userID, planID)
		if findErr == nil && found != nil {
			return found, nil
		}
	}

	r.logger.Errorw("failed to get or create entitlement",
		"user_id", userID,
		"plan_id", planID,
		"error", err)
	return nil, fmt.Errorf("failed to get or create entitlement: %w", err)
}

func (r *EntitlementRepositoryImpl) findByUserPlan(ctx context.Context, userID, planID uint) (*entitlement.Entitlement, error) {
	var model models.EntitlementModel
	err := r.txMgr.GetTx(ctx).
		Where("user_id = ? AND plan_id = ?", userID, planID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find entitlement: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// Update persists the entitlement with an optimistic version check. The
// aggregate bumps its version once per applied change, so the stored row
// must still carry the previous version.
func (r *EntitlementRepositoryImpl) Update(ctx context.Context, e *entitlement.Entitlement) error {
	model, err := r.mapper.ToModel(e)
	if err != nil {
		r.logger.Errorw("failed to map entitlement entity to model", "id", e.ID(), "error", err)
		return fmt.Errorf("failed to map entitlement entity: %w", err)
	}

	result := r.txMgr.GetTx(ctx).Model(&models.EntitlementModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]interface{}{
			"status":                model.Status,
			"expires_at":            model.ExpiresAt,
			"remote_preference_id":  model.RemotePreferenceID,
			"remote_payment_id":     model.RemotePaymentID,
			"remote_preapproval_id": model.RemotePreapprovalID,
			"updated_at":            model.UpdatedAt,
			"version":               model.Version,
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update entitlement", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update entitlement: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return entitlement.ErrConcurrentModification
	}

	r.logger.Debugw("entitlement updated",
		"id", model.ID,
		"status", model.Status,
		"version", model.Version)
	return nil
}

// ListWithPreapproval lists subscribed entitlements in the given statuses using keyset pagination
func (r *EntitlementRepositoryImpl) ListWithPreapproval(ctx context.Context, statuses []entitlement.Status, afterID uint, limit int) ([]*entitlement.Entitlement, error) {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, s.String())
	}

	var modelList []*models.EntitlementModel
	if err := r.txMgr.GetTx(ctx).
		Where("remote_preapproval_id IS NOT NULL AND remote_preapproval_id <> ''").
		Where("status IN ?", values).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&modelList).Error; err != nil {
		r.logger.Errorw("failed to list subscribed entitlements", "after_id", afterID, "error", err)
		return nil, fmt.Errorf("failed to list subscribed entitlements: %w", err)
	}

	entities, err := r.mapper.ToEntities(modelList)
	if err != nil {
		r.logger.Errorw("failed to map entitlement models to entities", "error", err)
		return nil, fmt.Errorf("failed to map entitlements: %w", err)
	}

	return entities, nil
}

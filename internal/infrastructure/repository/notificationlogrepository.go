package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/paysync/internal/domain/notification"
	"github.com/orris-inc/paysync/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/paysync/internal/infrastructure/persistence/models"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

type NotificationLogRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.NotificationLogMapper
	logger logger.Interface
}

func NewNotificationLogRepository(db *gorm.DB, logger logger.Interface) notification.LogRepository {
	return &NotificationLogRepositoryImpl{
		db:     db,
		mapper: mappers.NewNotificationLogMapper(),
		logger: logger,
	}
}

func (r *NotificationLogRepositoryImpl) Create(ctx context.Context, log *notification.Log) error {
	model, err := r.mapper.ToModel(log)
	if err != nil {
		return fmt.Errorf("failed to map notification log: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create notification log: %w", err)
	}

	log.ID = model.ID
	return nil
}

func (r *NotificationLogRepositoryImpl) ListByEntitlement(ctx context.Context, entitlementID uint, limit int) ([]*notification.Log, error) {
	var modelList []*models.NotificationLogModel
	if err := r.db.WithContext(ctx).
		Where("entitlement_id = ?", entitlementID).
		Order("id DESC").
		Limit(limit).
		Find(&modelList).Error; err != nil {
		r.logger.Errorw("failed to list notification logs", "entitlement_id", entitlementID, "error", err)
		return nil, fmt.Errorf("failed to list notification logs: %w", err)
	}

	logs := make([]*notification.Log, 0, len(modelList))
	for _, model := range modelList {
		entry, err := r.mapper.ToEntity(model)
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, nil
}

package migration

import (
	"gorm.io/gorm"

	"github.com/orris-inc/paysync/internal/infrastructure/persistence/models"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.PlanModel{},
		&models.EntitlementModel{},
		&models.NotificationLogModel{},
	}
}

// GormAutoMigrateStrategy derives the schema from the persistence models.
// It backs the sqlite driver used in development and tests.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy(logger logger.Interface) Strategy {
	return &GormAutoMigrateStrategy{
		logger: logger.With("component", "migration.gorm"),
	}
}

func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB, models ...interface{}) error {
	if len(models) == 0 {
		models = AutoMigrateModels()
	}

	s.logger.Infow("starting gorm auto migration", "models_count", len(models))
	if err := db.AutoMigrate(models...); err != nil {
		return err
	}
	s.logger.Infow("gorm auto migration completed")
	return nil
}

func (s *GormAutoMigrateStrategy) GetName() string {
	return "gorm_auto_migrate"
}

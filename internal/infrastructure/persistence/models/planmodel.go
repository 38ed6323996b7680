package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/orris-inc/paysync/internal/shared/constants"
)

// PlanModel represents the database persistence model for the plan catalog
type PlanModel struct {
	ID                 uint   `gorm:"primarykey"`
	Code               string `gorm:"uniqueIndex;not null;size:64"`
	Name               string `gorm:"not null;size:120"`
	Kind               string `gorm:"not null;size:20"`
	Price              int64  `gorm:"not null"`
	Currency           string `gorm:"not null;size:3"`
	AccessDurationDays *int
	IntervalCount      int    `gorm:"default:0"`
	IntervalUnit       string `gorm:"size:20"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the table name for GORM
func (PlanModel) TableName() string {
	return constants.TablePlans
}

// BeforeCreate hook for GORM
func (p *PlanModel) BeforeCreate(tx *gorm.DB) error {
	if p.Currency == "" {
		p.Currency = constants.DefaultCurrency
	}
	return nil
}

package models

import (
	"time"

	"github.com/orris-inc/paysync/internal/shared/constants"
)

// EntitlementModel represents the database persistence model for entitlements
// This is the anti-corruption layer between domain and database
type EntitlementModel struct {
	ID                  uint   `gorm:"primarykey"`
	UserID              uint   `gorm:"not null;uniqueIndex:uq_entitlements_user_plan,priority:1;index:ix_entitlements_user_status,priority:1"`
	PlanID              uint   `gorm:"not null;uniqueIndex:uq_entitlements_user_plan,priority:2"`
	Status              string `gorm:"not null;size:20;default:inactive;index:ix_entitlements_user_status,priority:2"`
	ExpiresAt           *time.Time
	RemotePreferenceID  *string `gorm:"size:64"`
	RemotePaymentID     *string `gorm:"size:64"`
	RemotePreapprovalID *string `gorm:"size:64;index"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Version             int `gorm:"not null;default:1"`
}

// TableName specifies the table name for GORM
func (EntitlementModel) TableName() string {
	return constants.TableEntitlements
}

package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/orris-inc/paysync/internal/shared/constants"
)

// NotificationLogModel is the audit row of one webhook delivery.
type NotificationLogModel struct {
	ID                uint   `gorm:"primaryKey"`
	Kind              string `gorm:"size:32;index"`
	RemoteID          string `gorm:"size:64;index"`
	RequestID         string `gorm:"size:128"`
	SignatureVerified bool   `gorm:"not null;default:false"`
	Outcome           string `gorm:"size:32;not null;index"`
	EntitlementID     *uint  `gorm:"index"`
	EntitlementStatus string `gorm:"size:20"`
	RemoteStatus      string `gorm:"size:32"`
	Error             string `gorm:"type:text"`
	Query             datatypes.JSON
	Body              datatypes.JSON
	CreatedAt         time.Time `gorm:"index"`
}

func (NotificationLogModel) TableName() string {
	return constants.TableNotificationLogs
}

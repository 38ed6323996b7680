package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/orris-inc/paysync/internal/domain/notification"
	"github.com/orris-inc/paysync/internal/infrastructure/persistence/models"
)

// NotificationLogMapper converts notification audit records.
type NotificationLogMapper interface {
	ToModel(log *notification.Log) (*models.NotificationLogModel, error)
	ToEntity(model *models.NotificationLogModel) (*notification.Log, error)
}

type notificationLogMapper struct{}

func NewNotificationLogMapper() NotificationLogMapper {
	return &notificationLogMapper{}
}

func (m *notificationLogMapper) ToModel(log *notification.Log) (*models.NotificationLogModel, error) {
	if log == nil {
		return nil, nil
	}

	var query datatypes.JSON
	if len(log.Query) > 0 {
		raw, err := json.Marshal(log.Query)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal query: %w", err)
		}
		query = datatypes.JSON(raw)
	}

	return &models.NotificationLogModel{
		ID:                log.ID,
		Kind:              log.Kind.String(),
		RemoteID:          log.RemoteID,
		RequestID:         log.RequestID,
		SignatureVerified: log.SignatureVerified,
		Outcome:           log.Outcome.String(),
		EntitlementID:     log.EntitlementID,
		EntitlementStatus: log.EntitlementStatus,
		RemoteStatus:      log.RemoteStatus,
		Error:             log.Error,
		Query:             query,
		Body:              bodyJSON(log.Body),
		CreatedAt:         log.CreatedAt,
	}, nil
}

func (m *notificationLogMapper) ToEntity(model *models.NotificationLogModel) (*notification.Log, error) {
	if model == nil {
		return nil, nil
	}

	var query map[string][]string
	if len(model.Query) > 0 {
		if err := json.Unmarshal(model.Query, &query); err != nil {
			return nil, fmt.Errorf("failed to unmarshal query: %w", err)
		}
	}

	return &notification.Log{
		ID:                model.ID,
		Kind:              notification.Kind(model.Kind),
		RemoteID:          model.RemoteID,
		RequestID:         model.RequestID,
		SignatureVerified: model.SignatureVerified,
		Outcome:           notification.Outcome(model.Outcome),
		EntitlementID:     model.EntitlementID,
		EntitlementStatus: model.EntitlementStatus,
		RemoteStatus:      model.RemoteStatus,
		Error:             model.Error,
		Query:             query,
		Body:              []byte(model.Body),
		CreatedAt:         model.CreatedAt,
	}, nil
}

// bodyJSON stores a raw body as JSON, wrapping non-JSON payloads in a string.
func bodyJSON(body []byte) datatypes.JSON {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return datatypes.JSON(body)
	}
	raw, _ := json.Marshal(string(body))
	return datatypes.JSON(raw)
}

package mappers

import (
	"fmt"

	"github.com/orris-inc/paysync/internal/domain/entitlement"
	"github.com/orris-inc/paysync/internal/infrastructure/persistence/models"
)

// EntitlementMapper handles the conversion between domain entities and persistence models
type EntitlementMapper interface {
	// ToEntity converts a persistence model to a domain entity
	ToEntity(model *models.EntitlementModel) (*entitlement.Entitlement, error)

	// ToModel converts a domain entity to a persistence model
	ToModel(entity *entitlement.Entitlement) (*models.EntitlementModel, error)

	// ToEntities converts multiple persistence models to domain entities
	ToEntities(models []*models.EntitlementModel) ([]*entitlement.Entitlement, error)
}

// entitlementMapper is the concrete implementation of EntitlementMapper
type entitlementMapper struct{}

// NewEntitlementMapper creates a new entitlement mapper
func NewEntitlementMapper() EntitlementMapper {
	return &entitlementMapper{}
}

// ToEntity converts a persistence model to a domain entity
func (m *entitlementMapper) ToEntity(model *models.EntitlementModel) (*entitlement.Entitlement, error) {
	if model == nil {
		return nil, nil
	}

	state := entitlement.State{
		Status:              entitlement.Status(model.Status),
		ExpiresAt:           utcPtr(model.ExpiresAt),
		RemotePreferenceID:  derefString(model.RemotePreferenceID),
		RemotePaymentID:     derefString(model.RemotePaymentID),
		RemotePreapprovalID: derefString(model.RemotePreapprovalID),
	}

	entity, err := entitlement.ReconstructEntitlement(
		model.ID,
		model.UserID,
		model.PlanID,
		state,
		model.CreatedAt,
		model.UpdatedAt,
		model.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct entitlement entity: %w", err)
	}

	return entity, nil
}

// ToModel converts a domain entity to a persistence model
func (m *entitlementMapper) ToModel(entity *entitlement.Entitlement) (*models.EntitlementModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.EntitlementModel{
		ID:                  entity.ID(),
		UserID:              entity.UserID(),
		PlanID:              entity.PlanID(),
		Status:              entity.Status().String(),
		ExpiresAt:           utcPtr(entity.ExpiresAt()),
		RemotePreferenceID:  optionalString(entity.RemotePreferenceID()),
		RemotePaymentID:     optionalString(entity.RemotePaymentID()),
		RemotePreapprovalID: optionalString(entity.RemotePreapprovalID()),
		CreatedAt:           entity.CreatedAt(),
		UpdatedAt:           entity.UpdatedAt(),
		Version:             entity.Version(),
	}, nil
}

// ToEntities converts multiple persistence models to domain entities
func (m *entitlementMapper) ToEntities(models []*models.EntitlementModel) ([]*entitlement.Entitlement, error) {
	entities := make([]*entitlement.Entitlement, 0, len(models))

	for i, model := range models {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map model at index %d (ID %d): %w", i, model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}

	return entities, nil
}

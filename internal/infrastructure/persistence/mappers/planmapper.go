package mappers

import (
	"fmt"

	"github.com/orris-inc/paysync/internal/domain/plan"
	"github.com/orris-inc/paysync/internal/infrastructure/persistence/models"
)

// PlanMapper handles the conversion between plan entities and persistence models
type PlanMapper interface {
	ToEntity(model *models.PlanModel) (*plan.Plan, error)
	ToModel(entity *plan.Plan) *models.PlanModel
}

type planMapper struct{}

func NewPlanMapper() PlanMapper {
	return &planMapper{}
}

func (m *planMapper) ToEntity(model *models.PlanModel) (*plan.Plan, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := plan.Reconstruct(plan.ReconstructParams{
		ID:                 model.ID,
		Code:               model.Code,
		Name:               model.Name,
		Kind:               plan.Kind(model.Kind),
		Price:              model.Price,
		Currency:           model.Currency,
		AccessDurationDays: model.AccessDurationDays,
		IntervalCount:      model.IntervalCount,
		IntervalUnit:       plan.IntervalUnit(model.IntervalUnit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct plan entity: %w", err)
	}
	return entity, nil
}

func (m *planMapper) ToModel(entity *plan.Plan) *models.PlanModel {
	if entity == nil {
		return nil
	}
	return &models.PlanModel{
		ID:                 entity.ID(),
		Code:               entity.Code(),
		Name:               entity.Name(),
		Kind:               entity.Kind().String(),
		Price:              entity.Price(),
		Currency:           entity.Currency(),
		AccessDurationDays: entity.AccessDurationDays(),
		IntervalCount:      entity.IntervalCount(),
		IntervalUnit:       string(entity.IntervalUnit()),
	}
}

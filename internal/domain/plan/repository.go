package plan

import (
	"context"
	"errors"
)

// ErrPlanNotFound is returned when a plan does not exist
var ErrPlanNotFound = errors.New("plan not found")

// Repository is the read side of the plan catalog.
type Repository interface {
	GetByID(ctx context.Context, id uint) (*Plan, error)
	GetByCode(ctx context.Context, code string) (*Plan, error)
}

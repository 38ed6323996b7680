package seeds

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/paysync/internal/domain/plan"
	"github.com/orris-inc/paysync/internal/infrastructure/persistence/models"
)

func intPtr(v int) *int { return &v }

// DefaultPlans is the catalog offered at launch. Prices are in minor units.
func DefaultPlans() []models.PlanModel {
	return []models.PlanModel{
		{
			Code:               "one_time_30d",
			Name:               "One-time 30 Days",
			Kind:               plan.KindOneTime.String(),
			Price:              30000,
			Currency:           plan.DefaultCurrency,
			AccessDurationDays: intPtr(30),
		},
		{
			Code:               "one_time_365d",
			Name:               "One-time 365 Days",
			Kind:               plan.KindOneTime.String(),
			Price:              199000,
			Currency:           plan.DefaultCurrency,
			AccessDurationDays: intPtr(365),
		},
		{
			Code:          "recurring_monthly",
			Name:          "Recurring Monthly",
			Kind:          plan.KindRecurring.String(),
			Price:         17900,
			Currency:      plan.DefaultCurrency,
			IntervalCount: 1,
			IntervalUnit:  string(plan.IntervalMonths),
		},
		{
			Code:          "recurring_annual",
			Name:          "Recurring Annual",
			Kind:          plan.KindRecurring.String(),
			Price:         179000,
			Currency:      plan.DefaultCurrency,
			IntervalCount: 12,
			IntervalUnit:  string(plan.IntervalMonths),
		},
	}
}

// SeedPlans inserts the default catalog, updating rows that already exist by code.
func SeedPlans(db *gorm.DB) (int, error) {
	plans := DefaultPlans()
	for i := range plans {
		p := plans[i]
		if err := db.Where(models.PlanModel{Code: p.Code}).
			Assign(models.PlanModel{
				Name:               p.Name,
				Kind:               p.Kind,
				Price:              p.Price,
				Currency:           p.Currency,
				AccessDurationDays: p.AccessDurationDays,
				IntervalCount:      p.IntervalCount,
				IntervalUnit:       p.IntervalUnit,
			}).
			FirstOrCreate(&p).Error; err != nil {
			return 0, fmt.Errorf("failed to seed plan %s: %w", p.Code, err)
		}
	}
	return len(plans), nil
}

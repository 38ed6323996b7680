package reconciliation

import (
	"context"
	"errors"
	"fmt"

	"github.com/orris-inc/paysync/internal/domain/entitlement"
	"github.com/orris-inc/paysync/internal/domain/notification"
	"github.com/orris-inc/paysync/internal/domain/plan"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

// ErrCommitConflict is returned when every versioned update attempt lost
// the race against a concurrent writer.
var ErrCommitConflict = errors.New("entitlement commit retries exhausted")

// KeyedLocker serializes work per key. The returned unlock must be called
// exactly once.
type KeyedLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// CommitResult describes a reduction applied to one entitlement.
type CommitResult struct {
	Entitlement *entitlement.Entitlement
	Transition  entitlement.Transition
}

// Committer runs reduce and commit for one entitlement under its lock, with
// an optimistic version check and bounded retry on conflict.
type Committer struct {
	entitlementRepo entitlement.Repository
	planRepo        plan.Repository
	locker          KeyedLocker
	clock           Clock
	retries         int
	logger          logger.Interface
}

func NewCommitter(
	entitlementRepo entitlement.Repository,
	planRepo plan.Repository,
	locker KeyedLocker,
	clock Clock,
	retries int,
	logger logger.Interface,
) *Committer {
	if clock == nil {
		clock = SystemClock()
	}
	if retries < 0 {
		retries = 0
	}
	return &Committer{
		entitlementRepo: entitlementRepo,
		planRepo:        planRepo,
		locker:          locker,
		clock:           clock,
		retries:         retries,
		logger:          logger,
	}
}

// LockKey returns the serialization key of an entitlement.
func LockKey(entitlementID uint) string {
	return fmt.Sprintf("entitlement:%d", entitlementID)
}

// Apply reduces res onto the entitlement and persists the result. A missing
// entitlement returns entitlement.ErrEntitlementNotFound; any other error is
// a persistence failure.
func (c *Committer) Apply(ctx context.Context, entitlementID uint, res *notification.Resolution) (*CommitResult, error) {
	unlock, err := c.locker.Lock(ctx, LockKey(entitlementID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock entitlement %d: %w", entitlementID, err)
	}
	defer unlock()

	for attempt := 0; attempt <= c.retries; attempt++ {
		ent, err := c.entitlementRepo.GetByID(ctx, entitlementID)
		if err != nil {
			return nil, err
		}

		p, err := c.loadPlan(ctx, ent, res)
		if err != nil {
			return nil, err
		}

		now := c.clock.Now()
		tr := entitlement.Reduce(ent.State(), p, res, now)
		if !tr.Changed {
			return &CommitResult{Entitlement: ent, Transition: tr}, nil
		}

		if _, err := ent.Apply(tr.Next, now); err != nil {
			return nil, fmt.Errorf("failed to apply transition: %w", err)
		}

		err = c.entitlementRepo.Update(ctx, ent)
		if err == nil {
			return &CommitResult{Entitlement: ent, Transition: tr}, nil
		}
		if !errors.Is(err, entitlement.ErrConcurrentModification) {
			return nil, fmt.Errorf("failed to update entitlement %d: %w", entitlementID, err)
		}

		c.logger.Warnw("entitlement version conflict, retrying",
			"entitlement_id", entitlementID,
			"attempt", attempt+1,
		)
	}

	return nil, fmt.Errorf("%w: entitlement %d", ErrCommitConflict, entitlementID)
}

// loadPlan fetches the plan only for payment resolutions, the one path whose
// reduction depends on it.
func (c *Committer) loadPlan(ctx context.Context, ent *entitlement.Entitlement, res *notification.Resolution) (*plan.Plan, error) {
	if res.Kind != notification.KindPayment && res.Kind != notification.KindMerchantOrder {
		return nil, nil
	}

	p, err := c.planRepo.GetByID(ctx, ent.PlanID())
	if err != nil {
		if errors.Is(err, plan.ErrPlanNotFound) {
			c.logger.Warnw("plan not found for entitlement, expiry left unchanged",
				"entitlement_id", ent.ID(),
				"plan_id", ent.PlanID(),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get plan %d: %w", ent.PlanID(), err)
	}
	return p, nil
}

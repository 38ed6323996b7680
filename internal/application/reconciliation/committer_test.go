package reconciliation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/paysync/internal/application/reconciliation/testutil"
	"github.com/orris-inc/paysync/internal/domain/entitlement"
	"github.com/orris-inc/paysync/internal/domain/notification"
	"github.com/orris-inc/paysync/internal/domain/plan"
)

func newTestPlan(t *testing.T) *plan.Plan {
	t.Helper()
	days := 30
	p, err := plan.Reconstruct(plan.ReconstructParams{ID: 1, Code: "one_time_basic", Kind: plan.KindOneTime, Price: 9900, AccessDurationDays: &days})
	require.NoError(t, err)
	return p
}

func approvedPayment(id string) *notification.Resolution {
	return &notification.Resolution{
		Kind:    notification.KindPayment,
		Payment: &notification.RemotePayment{ID: id, Status: "approved"},
	}
}

func TestCommitter_Apply(t *testing.T) {
	repo := testutil.NewEntitlementRepository()
	repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusInactive})
	clock := testutil.NewClock(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	c := NewCommitter(repo, testutil.NewPlanRepository(newTestPlan(t)), testutil.NewLocker(), clock, 3, testutil.NewDiscardLogger())

	result, err := c.Apply(context.Background(), 42, approvedPayment("p1"))
	require.NoError(t, err)
	assert.True(t, result.Transition.Changed)
	assert.Equal(t, entitlement.StatusActive, result.Entitlement.Status())
	assert.Equal(t, 2, result.Entitlement.Version())

	stored, ok := repo.Snapshot(42)
	require.True(t, ok)
	assert.Equal(t, entitlement.StatusActive, stored.Status())
	require.NotNil(t, stored.ExpiresAt())
	assert.True(t, clock.Now().Add(30*24*time.Hour).Equal(*stored.ExpiresAt()))
}

func TestCommitter_NoChangeSkipsUpdate(t *testing.T) {
	repo := testutil.NewEntitlementRepository()
	repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusActive, RemotePaymentID: "p1"})
	c := NewCommitter(repo, testutil.NewPlanRepository(newTestPlan(t)), testutil.NewLocker(), nil, 3, testutil.NewDiscardLogger())

	result, err := c.Apply(context.Background(), 42, approvedPayment("p1"))
	require.NoError(t, err)
	assert.True(t, result.Transition.Idempotent)
	assert.Equal(t, 0, repo.Updates())
}

func TestCommitter_NotFound(t *testing.T) {
	repo := testutil.NewEntitlementRepository()
	c := NewCommitter(repo, testutil.NewPlanRepository(), testutil.NewLocker(), nil, 3, testutil.NewDiscardLogger())

	_, err := c.Apply(context.Background(), 99, approvedPayment("p1"))
	assert.ErrorIs(t, err, entitlement.ErrEntitlementNotFound)
}

func TestCommitter_MissingPlanStillActivates(t *testing.T) {
	repo := testutil.NewEntitlementRepository()
	repo.Seed(42, 7, 5, entitlement.State{Status: entitlement.StatusInactive})
	c := NewCommitter(repo, testutil.NewPlanRepository(), testutil.NewLocker(), nil, 3, testutil.NewDiscardLogger())

	result, err := c.Apply(context.Background(), 42, approvedPayment("p1"))
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusActive, result.Entitlement.Status())
	assert.Nil(t, result.Entitlement.ExpiresAt())
}

func TestCommitter_RetriesOnVersionConflict(t *testing.T) {
	repo := testutil.NewEntitlementRepository()
	repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusInactive})

	var conflicts int
	repo.BeforeUpdate = func(id uint) {
		if conflicts < 2 {
			conflicts++
			repo.BumpVersion(id)
		}
	}
	c := NewCommitter(repo, testutil.NewPlanRepository(newTestPlan(t)), testutil.NewLocker(), nil, 3, testutil.NewDiscardLogger())

	result, err := c.Apply(context.Background(), 42, approvedPayment("p1"))
	require.NoError(t, err)
	assert.Equal(t, 2, conflicts)
	assert.Equal(t, 1, repo.Updates())
	assert.Equal(t, entitlement.StatusActive, result.Entitlement.Status())
}

func TestCommitter_ConflictRetriesExhausted(t *testing.T) {
	repo := testutil.NewEntitlementRepository()
	repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusInactive})
	repo.BeforeUpdate = repo.BumpVersion
	c := NewCommitter(repo, testutil.NewPlanRepository(newTestPlan(t)), testutil.NewLocker(), nil, 2, testutil.NewDiscardLogger())

	_, err := c.Apply(context.Background(), 42, approvedPayment("p1"))
	assert.ErrorIs(t, err, ErrCommitConflict)
	assert.Equal(t, 0, repo.Updates())
}

func TestCommitter_PersistenceFailure(t *testing.T) {
	repo := testutil.NewEntitlementRepository()
	repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusInactive})
	repo.UpdateErr = errors.New("database is locked")
	c := NewCommitter(repo, testutil.NewPlanRepository(newTestPlan(t)), testutil.NewLocker(), nil, 3, testutil.NewDiscardLogger())

	_, err := c.Apply(context.Background(), 42, approvedPayment("p1"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, entitlement.ErrEntitlementNotFound)
}

func TestCommitter_LockFailure(t *testing.T) {
	locker := testutil.NewLocker()
	locker.Err = errors.New("redis unavailable")
	c := NewCommitter(testutil.NewEntitlementRepository(), testutil.NewPlanRepository(), locker, nil, 3, testutil.NewDiscardLogger())

	_, err := c.Apply(context.Background(), 42, approvedPayment("p1"))
	assert.Error(t, err)
}

func TestCommitter_ConcurrentDeliveriesDoNotLoseUpdates(t *testing.T) {
	repo := testutil.NewEntitlementRepository()
	repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusInactive})
	c := NewCommitter(repo, testutil.NewPlanRepository(newTestPlan(t)), testutil.NewLocker(), nil, 3, testutil.NewDiscardLogger())

	preapproval := &notification.Resolution{
		Kind:        notification.KindPreapproval,
		Preapproval: &notification.RemotePreapproval{ID: "pre-1", Status: "authorized"},
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, res := range []*notification.Resolution{approvedPayment("p1"), preapproval} {
		wg.Add(1)
		go func(res *notification.Resolution) {
			defer wg.Done()
			_, err := c.Apply(context.Background(), 42, res)
			errs <- err
		}(res)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, ok := repo.Snapshot(42)
	require.True(t, ok)
	assert.Equal(t, "p1", stored.RemotePaymentID())
	assert.Equal(t, "pre-1", stored.RemotePreapprovalID())
	assert.Equal(t, entitlement.StatusActive, stored.Status())
	assert.Equal(t, 3, stored.Version())
}

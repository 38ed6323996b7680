package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/paysync/internal/application/reconciliation"
	"github.com/orris-inc/paysync/internal/application/reconciliation/gateway"
	"github.com/orris-inc/paysync/internal/application/reconciliation/testutil"
	"github.com/orris-inc/paysync/internal/domain/entitlement"
	"github.com/orris-inc/paysync/internal/domain/notification"
)

func TestResyncSubscriptions_Execute(t *testing.T) {
	api := gateway.NewMockReadAPI()
	repo := testutil.NewEntitlementRepository()
	log := testutil.NewDiscardLogger()
	clock := testutil.NewClock(testNow)

	endDate := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	// canceled upstream while we missed the webhook
	repo.Seed(1, 10, 2, entitlement.State{Status: entitlement.StatusActive, RemotePreapprovalID: "pre-1"})
	api.Preapprovals["pre-1"] = &notification.RemotePreapproval{ID: "pre-1", Status: "cancelled", EndDate: &endDate}
	// unchanged
	repo.Seed(2, 11, 2, entitlement.State{Status: entitlement.StatusActive, RemotePreapprovalID: "pre-2"})
	api.Preapprovals["pre-2"] = &notification.RemotePreapproval{ID: "pre-2", Status: "authorized"}
	// preapproval gone upstream
	repo.Seed(3, 12, 2, entitlement.State{Status: entitlement.StatusPastDue, RemotePreapprovalID: "pre-3"})
	// not subscribed, skipped
	repo.Seed(4, 13, 1, entitlement.State{Status: entitlement.StatusActive})
	// inactive, skipped
	repo.Seed(5, 14, 2, entitlement.State{Status: entitlement.StatusInactive, RemotePreapprovalID: "pre-5"})

	resolver := reconciliation.NewResolver(api, reconciliation.DefaultRetryPolicy(), clock, log)
	committer := reconciliation.NewCommitter(repo, testutil.NewPlanRepository(), testutil.NewLocker(), clock, 3, log)
	uc := NewResyncSubscriptionsUseCase(repo, resolver, committer, 2, log)

	summary, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Checked)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Failed)

	canceled, _ := repo.Snapshot(1)
	assert.Equal(t, entitlement.StatusCanceled, canceled.Status())
	require.NotNil(t, canceled.ExpiresAt())
	assert.True(t, endDate.Equal(*canceled.ExpiresAt()))
	assert.Equal(t, 0, api.Calls("/preapproval/pre-5"))
}

func TestResyncSubscriptions_CancelledContext(t *testing.T) {
	repo := testutil.NewEntitlementRepository()
	repo.Seed(1, 10, 2, entitlement.State{Status: entitlement.StatusActive, RemotePreapprovalID: "pre-1"})
	log := testutil.NewDiscardLogger()
	api := gateway.NewMockReadAPI()

	resolver := reconciliation.NewResolver(api, reconciliation.DefaultRetryPolicy(), nil, log)
	committer := reconciliation.NewCommitter(repo, testutil.NewPlanRepository(), testutil.NewLocker(), nil, 3, log)
	uc := NewResyncSubscriptionsUseCase(repo, resolver, committer, 0, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, api.Calls("/preapproval/pre-1"))
}

package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/paysync/internal/application/reconciliation"
	"github.com/orris-inc/paysync/internal/application/reconciliation/gateway"
	"github.com/orris-inc/paysync/internal/application/reconciliation/testutil"
	"github.com/orris-inc/paysync/internal/domain/entitlement"
	"github.com/orris-inc/paysync/internal/domain/notification"
	"github.com/orris-inc/paysync/internal/domain/plan"
	apperrors "github.com/orris-inc/paysync/internal/shared/errors"
)

const webhookSecret = "whsec"

var testNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	api     *gateway.MockReadAPI
	repo    *testutil.EntitlementRepository
	logs    *testutil.LogRepository
	clock   *testutil.Clock
	useCase *HandleNotificationUseCase
}

func newFixture(t *testing.T, verifierCfg reconciliation.VerifierConfig) *fixture {
	t.Helper()

	days := 30
	oneTime, err := plan.Reconstruct(plan.ReconstructParams{ID: 1, Code: "one_time_basic", Kind: plan.KindOneTime, Price: 9900, AccessDurationDays: &days})
	require.NoError(t, err)
	recurring, err := plan.Reconstruct(plan.ReconstructParams{ID: 2, Code: "recurring_monthly", Kind: plan.KindRecurring, Price: 4900, IntervalCount: 1, IntervalUnit: plan.IntervalMonths})
	require.NoError(t, err)

	f := &fixture{
		api:   gateway.NewMockReadAPI(),
		repo:  testutil.NewEntitlementRepository(),
		logs:  &testutil.LogRepository{},
		clock: testutil.NewClock(testNow),
	}
	log := testutil.NewDiscardLogger()
	policy := reconciliation.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Factor: 1}

	verifier := reconciliation.NewSignatureVerifier(verifierCfg, f.clock, log)
	resolver := reconciliation.NewResolver(f.api, policy, f.clock, log)
	committer := reconciliation.NewCommitter(f.repo, testutil.NewPlanRepository(oneTime, recurring), testutil.NewLocker(), f.clock, 3, log)

	f.useCase = NewHandleNotificationUseCase(verifier, resolver, committer, log)
	f.useCase.SetLogRepository(f.logs)
	return f
}

func paymentInbound(id string) reconciliation.Inbound {
	return reconciliation.Inbound{
		Query: url.Values{},
		Body:  []byte(fmt.Sprintf(`{"type":"payment","action":"payment.updated","data":{"id":"%s"}}`, id)),
	}
}

func TestHandleNotification_ApprovedPaymentActivates(t *testing.T) {
	f := newFixture(t, reconciliation.VerifierConfig{})
	f.repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusInactive})
	f.api.Payments["123"] = &notification.RemotePayment{ID: "123", Status: "approved", ExternalReference: "user:7|ent:42|order:abc|plan:one_time_basic"}

	result, err := f.useCase.Execute(context.Background(), paymentInbound("123"))
	require.NoError(t, err)

	assert.True(t, result.Activated)
	assert.True(t, result.Applied)
	assert.Equal(t, entitlement.StatusActive, result.EntStatus)
	assert.Equal(t, uint(42), result.EntitlementID)

	stored, _ := f.repo.Snapshot(42)
	require.NotNil(t, stored.ExpiresAt())
	assert.True(t, testNow.Add(30*24*time.Hour).Equal(*stored.ExpiresAt()))
	assert.Equal(t, "123", stored.RemotePaymentID())

	last := f.logs.Last()
	require.NotNil(t, last)
	assert.Equal(t, notification.OutcomeApplied, last.Outcome)
	assert.Equal(t, notification.KindPayment, last.Kind)
}

func TestHandleNotification_DuplicateApprovedPaymentIsIdempotent(t *testing.T) {
	f := newFixture(t, reconciliation.VerifierConfig{})
	f.repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusInactive})
	f.api.Payments["123"] = &notification.RemotePayment{ID: "123", Status: "approved", Metadata: map[string]any{"entitlement_id": float64(42)}}

	_, err := f.useCase.Execute(context.Background(), paymentInbound("123"))
	require.NoError(t, err)
	first, _ := f.repo.Snapshot(42)

	f.clock.Advance(72 * time.Hour)
	result, err := f.useCase.Execute(context.Background(), paymentInbound("123"))
	require.NoError(t, err)

	assert.True(t, result.Idempotent)
	assert.False(t, result.Applied)
	second, _ := f.repo.Snapshot(42)
	assert.Equal(t, first.Status(), second.Status())
	assert.True(t, first.ExpiresAt().Equal(*second.ExpiresAt()))
	assert.Equal(t, 1, f.repo.Updates())
	assert.Equal(t, notification.OutcomeIdempotent, f.logs.Last().Outcome)
}

func TestHandleNotification_PaymentNotApproved(t *testing.T) {
	f := newFixture(t, reconciliation.VerifierConfig{})
	f.repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusInactive})
	f.api.Payments["5"] = &notification.RemotePayment{ID: "5", Status: "rejected", ExternalReference: "ent:42"}

	result, err := f.useCase.Execute(context.Background(), paymentInbound("5"))
	require.NoError(t, err)
	assert.False(t, result.Activated)
	assert.Equal(t, "rejected", result.RemoteStatus)
	assert.Equal(t, entitlement.StatusInactive, result.EntStatus)

	stored, _ := f.repo.Snapshot(42)
	assert.Equal(t, "5", stored.RemotePaymentID())
}

func TestHandleNotification_PreapprovalActivation(t *testing.T) {
	f := newFixture(t, reconciliation.VerifierConfig{})
	f.repo.Seed(8, 7, 2, entitlement.State{Status: entitlement.StatusInactive})
	endDate := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	f.api.Preapprovals["pre-1"] = &notification.RemotePreapproval{
		ID:                "pre-1",
		Status:            "authorized",
		ExternalReference: "user:7|ent:8|order:o1|plan:recurring_monthly",
		EndDate:           &endDate,
	}

	in := reconciliation.Inbound{Body: []byte(`{"type":"subscription_preapproval","data":{"id":"pre-1"}}`)}
	result, err := f.useCase.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, result.Activated)

	stored, _ := f.repo.Snapshot(8)
	assert.Equal(t, entitlement.StatusActive, stored.Status())
	require.NotNil(t, stored.ExpiresAt())
	assert.True(t, endDate.Equal(*stored.ExpiresAt()))
	assert.Equal(t, "pre-1", stored.RemotePreapprovalID())
}

func TestHandleNotification_AuthorizedPaymentRejectedMarksPastDue(t *testing.T) {
	f := newFixture(t, reconciliation.VerifierConfig{})
	f.repo.Seed(8, 7, 2, entitlement.State{Status: entitlement.StatusActive, RemotePreapprovalID: "pre-1"})
	f.api.AuthorizedPayments["ap-1"] = &notification.RemoteAuthorizedPayment{ID: "ap-1", PreapprovalID: "pre-1", Status: "rejected"}
	f.api.Preapprovals["pre-1"] = &notification.RemotePreapproval{ID: "pre-1", Status: "authorized", Metadata: map[string]any{"entitlement_id": "8"}}

	in := reconciliation.Inbound{Body: []byte(`{"type":"subscription_authorized_payment","data":{"id":"ap-1"}}`)}
	result, err := f.useCase.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusPastDue, result.EntStatus)
}

func TestHandleNotification_MerchantOrder(t *testing.T) {
	t.Run("payment appears on third poll", func(t *testing.T) {
		f := newFixture(t, reconciliation.VerifierConfig{})
		f.repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusInactive})
		f.api.MerchantOrders["mo-1"] = []*notification.RemoteMerchantOrder{
			{ID: "mo-1"},
			{ID: "mo-1"},
			{ID: "mo-1", Payments: []notification.OrderPayment{{ID: "777", Status: "approved"}}},
		}
		f.api.Payments["777"] = &notification.RemotePayment{ID: "777", Status: "approved", ExternalReference: "ent:42"}

		in := reconciliation.Inbound{Query: url.Values{"topic": {"merchant_order"}, "id": {"mo-1"}}}
		result, err := f.useCase.Execute(context.Background(), in)
		require.NoError(t, err)
		assert.False(t, result.Ignored)
		assert.True(t, result.Activated)

		stored, _ := f.repo.Snapshot(42)
		assert.Equal(t, "777", stored.RemotePaymentID())
		assert.Len(t, f.clock.Sleeps, 2)
	})

	t.Run("empty after budget is ignored", func(t *testing.T) {
		f := newFixture(t, reconciliation.VerifierConfig{})
		f.repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusInactive})
		f.api.MerchantOrders["mo-2"] = []*notification.RemoteMerchantOrder{{ID: "mo-2"}}

		in := reconciliation.Inbound{Query: url.Values{"topic": {"merchant_order"}, "id": {"mo-2"}}}
		result, err := f.useCase.Execute(context.Background(), in)
		require.NoError(t, err)
		assert.True(t, result.Ignored)
		assert.Equal(t, WarningOrderWithoutPayment, result.Warning)
		assert.Equal(t, 0, f.repo.Updates())
		assert.Equal(t, 3, f.api.Calls("/merchant_orders/mo-2"))
	})
}

func TestHandleNotification_BadSignatureRejectsWithoutMutation(t *testing.T) {
	f := newFixture(t, reconciliation.VerifierConfig{Secret: webhookSecret})
	f.repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusInactive})
	f.api.Payments["123"] = &notification.RemotePayment{ID: "123", Status: "approved", ExternalReference: "ent:42"}

	in := paymentInbound("123")
	in.Signature = "ts=1700000000,v1=0000000000000000000000000000000000000000000000000000000000000000"
	in.RequestID = "req-1"

	result, err := f.useCase.Execute(context.Background(), in)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, reconciliation.ErrSignatureInvalid)
	assert.Equal(t, 0, f.repo.Updates())
	assert.Equal(t, 0, f.api.Calls("/v1/payments/123"))
	assert.Equal(t, notification.OutcomeRejected, f.logs.Last().Outcome)
}

func TestHandleNotification_ValidSignature(t *testing.T) {
	f := newFixture(t, reconciliation.VerifierConfig{Secret: webhookSecret})
	f.repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusInactive})
	f.api.Payments["123"] = &notification.RemotePayment{ID: "123", Status: "approved", ExternalReference: "ent:42"}

	in := paymentInbound("123")
	in.RequestID = "req-1"
	in.Signature = "ts=1700000000,v1=" + reconciliation.Sign(webhookSecret, "123", "req-1", "1700000000")

	result, err := f.useCase.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, result.Activated)
	assert.True(t, f.logs.Last().SignatureVerified)
}

func TestHandleNotification_MissingSignatureRejected(t *testing.T) {
	f := newFixture(t, reconciliation.VerifierConfig{Secret: webhookSecret})

	_, err := f.useCase.Execute(context.Background(), paymentInbound("123"))
	assert.ErrorIs(t, err, reconciliation.ErrSignatureMissing)
}

func TestHandleNotification_UnmappablePayment(t *testing.T) {
	f := newFixture(t, reconciliation.VerifierConfig{})
	f.repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusInactive})
	f.api.Payments["123"] = &notification.RemotePayment{ID: "123", Status: "approved", ExternalReference: "order:abc", Metadata: map[string]any{"other": 1}}

	result, err := f.useCase.Execute(context.Background(), paymentInbound("123"))
	require.NoError(t, err)
	assert.Equal(t, WarningUnmapped, result.Warning)
	assert.Equal(t, 0, f.repo.Updates())
	assert.Equal(t, notification.OutcomeUnmapped, f.logs.Last().Outcome)
}

func TestHandleNotification_UnknownEntitlement(t *testing.T) {
	f := newFixture(t, reconciliation.VerifierConfig{})
	f.api.Payments["123"] = &notification.RemotePayment{ID: "123", Status: "approved", ExternalReference: "ent:404"}

	result, err := f.useCase.Execute(context.Background(), paymentInbound("123"))
	require.NoError(t, err)
	assert.Equal(t, WarningNotFound, result.Warning)
}

func TestHandleNotification_Unrecognized(t *testing.T) {
	f := newFixture(t, reconciliation.VerifierConfig{Secret: webhookSecret})

	result, err := f.useCase.Execute(context.Background(), reconciliation.Inbound{Body: []byte(`{"type":"plan"}`)})
	require.NoError(t, err)
	assert.True(t, result.Ignored)
}

func TestHandleNotification_UpstreamFailure(t *testing.T) {
	f := newFixture(t, reconciliation.VerifierConfig{})

	_, err := f.useCase.Execute(context.Background(), paymentInbound("missing"))
	require.Error(t, err)

	var upstream *gateway.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusNotFound, upstream.Status)
	assert.Equal(t, notification.OutcomeUpstreamError, f.logs.Last().Outcome)
}

func TestHandleNotification_PersistenceFailure(t *testing.T) {
	f := newFixture(t, reconciliation.VerifierConfig{})
	f.repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusInactive})
	f.repo.UpdateErr = errors.New("disk full")
	f.api.Payments["123"] = &notification.RemotePayment{ID: "123", Status: "approved", ExternalReference: "ent:42"}

	_, err := f.useCase.Execute(context.Background(), paymentInbound("123"))
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.Equal(t, notification.OutcomePersistenceError, f.logs.Last().Outcome)
}

func TestHandleNotification_LogFailureDoesNotChangeResult(t *testing.T) {
	f := newFixture(t, reconciliation.VerifierConfig{})
	f.logs.Err = errors.New("log table missing")
	f.repo.Seed(42, 7, 1, entitlement.State{Status: entitlement.StatusInactive})
	f.api.Payments["123"] = &notification.RemotePayment{ID: "123", Status: "approved", ExternalReference: "ent:42"}

	result, err := f.useCase.Execute(context.Background(), paymentInbound("123"))
	require.NoError(t, err)
	assert.True(t, result.Activated)
}

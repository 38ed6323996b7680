package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orris-inc/paysync/internal/application/reconciliation/testutil"
	"github.com/orris-inc/paysync/internal/domain/entitlement"
	"github.com/orris-inc/paysync/internal/domain/notification"
	"github.com/orris-inc/paysync/internal/domain/plan"
	"github.com/orris-inc/paysync/internal/infrastructure/persistence/models"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// every connection to ":memory:" is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.PlanModel{}, &models.EntitlementModel{}, &models.NotificationLogModel{})
	require.NoError(t, err)

	return db
}

func testLogger() logger.Interface {
	return testutil.NewDiscardLogger()
}

func seedPlan(t *testing.T, db *gorm.DB, code string, days *int) uint {
	model := &models.PlanModel{
		Code:               code,
		Name:               code,
		Kind:               plan.KindOneTime.String(),
		Price:              30000,
		AccessDurationDays: days,
	}
	require.NoError(t, db.Create(model).Error)
	return model.ID
}

func TestEntitlementRepository_GetOrCreate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntitlementRepository(db, testLogger())
	ctx := context.Background()

	t.Run("creates inactive entitlement", func(t *testing.T) {
		ent, err := repo.GetOrCreate(ctx, 7, 1)
		require.NoError(t, err)
		assert.NotZero(t, ent.ID())
		assert.Equal(t, entitlement.StatusInactive, ent.Status())
		assert.Equal(t, 1, ent.Version())
	})

	t.Run("returns existing row for the same pair", func(t *testing.T) {
		first, err := repo.GetOrCreate(ctx, 8, 1)
		require.NoError(t, err)
		second, err := repo.GetOrCreate(ctx, 8, 1)
		require.NoError(t, err)
		assert.Equal(t, first.ID(), second.ID())

		var count int64
		require.NoError(t, db.Model(&models.EntitlementModel{}).Where("user_id = ?", 8).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestEntitlementRepository_GetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntitlementRepository(db, testLogger())

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, entitlement.ErrEntitlementNotFound)
}

func TestEntitlementRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntitlementRepository(db, testLogger())
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := now.Add(30 * 24 * time.Hour)

	created, err := repo.GetOrCreate(ctx, 1, 1)
	require.NoError(t, err)

	t.Run("persists applied state and version", func(t *testing.T) {
		ent, err := repo.GetByID(ctx, created.ID())
		require.NoError(t, err)

		changed, err := ent.Apply(entitlement.State{
			Status:          entitlement.StatusActive,
			ExpiresAt:       &expires,
			RemotePaymentID: "pay-1",
		}, now)
		require.NoError(t, err)
		require.True(t, changed)
		require.NoError(t, repo.Update(ctx, ent))

		reloaded, err := repo.GetByID(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, entitlement.StatusActive, reloaded.Status())
		assert.Equal(t, "pay-1", reloaded.RemotePaymentID())
		assert.Equal(t, 2, reloaded.Version())
		require.NotNil(t, reloaded.ExpiresAt())
		assert.True(t, expires.Equal(*reloaded.ExpiresAt()))
		assert.Empty(t, reloaded.RemotePreapprovalID())
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		a, err := repo.GetByID(ctx, created.ID())
		require.NoError(t, err)
		b, err := repo.GetByID(ctx, created.ID())
		require.NoError(t, err)

		_, err = a.Apply(entitlement.State{Status: entitlement.StatusPastDue}, now)
		require.NoError(t, err)
		require.NoError(t, repo.Update(ctx, a))

		_, err = b.Apply(entitlement.State{Status: entitlement.StatusInactive}, now)
		require.NoError(t, err)
		err = repo.Update(ctx, b)
		assert.ErrorIs(t, err, entitlement.ErrConcurrentModification)

		reloaded, err := repo.GetByID(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, entitlement.StatusPastDue, reloaded.Status())
	})

	t.Run("persists recorded preference", func(t *testing.T) {
		ent, err := repo.GetByID(ctx, created.ID())
		require.NoError(t, err)
		version := ent.Version()

		require.True(t, ent.RecordPreference("pref-9"))
		require.NoError(t, repo.Update(ctx, ent))

		reloaded, err := repo.GetByID(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, "pref-9", reloaded.RemotePreferenceID())
		assert.Equal(t, version+1, reloaded.Version())
		assert.Equal(t, entitlement.StatusPastDue, reloaded.Status())
	})
}

func TestEntitlementRepository_ListWithPreapproval(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntitlementRepository(db, testLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	apply := func(userID uint, state entitlement.State) uint {
		ent, err := repo.GetOrCreate(ctx, userID, 1)
		require.NoError(t, err)
		_, err = ent.Apply(state, now)
		require.NoError(t, err)
		require.NoError(t, repo.Update(ctx, ent))
		return ent.ID()
	}

	first := apply(1, entitlement.State{Status: entitlement.StatusActive, RemotePreapprovalID: "pre-1"})
	apply(2, entitlement.State{Status: entitlement.StatusActive})
	third := apply(3, entitlement.State{Status: entitlement.StatusPastDue, RemotePreapprovalID: "pre-3"})
	apply(4, entitlement.State{Status: entitlement.StatusCanceled, RemotePreapprovalID: "pre-4"})

	statuses := []entitlement.Status{entitlement.StatusActive, entitlement.StatusPastDue}

	page, err := repo.ListWithPreapproval(ctx, statuses, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, first, page[0].ID())
	assert.Equal(t, third, page[1].ID())

	page, err = repo.ListWithPreapproval(ctx, statuses, first, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, third, page[0].ID())
}

func TestPlanRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPlanRepository(db, testLogger())
	ctx := context.Background()

	days := 30
	id := seedPlan(t, db, "one_time_30d", &days)

	byID, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "one_time_30d", byID.Code())
	assert.Equal(t, plan.DefaultCurrency, byID.Currency())

	byCode, err := repo.GetByCode(ctx, "one_time_30d")
	require.NoError(t, err)
	assert.Equal(t, id, byCode.ID())
	d, ok := byCode.AccessDuration()
	assert.True(t, ok)
	assert.Equal(t, 30*24*time.Hour, d)

	_, err = repo.GetByCode(ctx, "missing")
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)
	_, err = repo.GetByID(ctx, id+100)
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)
}

func TestNotificationLogRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationLogRepository(db, testLogger())
	ctx := context.Background()

	entID := uint(5)
	for i, outcome := range []notification.Outcome{notification.OutcomeApplied, notification.OutcomeIdempotent} {
		entry := &notification.Log{
			Kind:              notification.KindPayment,
			RemoteID:          "pay-1",
			RequestID:         "req",
			SignatureVerified: true,
			Outcome:           outcome,
			EntitlementID:     &entID,
			EntitlementStatus: "active",
			RemoteStatus:      "approved",
			Query:             map[string][]string{"topic": {"payment"}},
			Body:              []byte(`{"data":{"id":"pay-1"}}`),
			CreatedAt:         time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Create(ctx, entry))
		assert.NotZero(t, entry.ID)
	}

	other := &notification.Log{Kind: notification.KindPayment, Outcome: notification.OutcomeIgnored, Body: []byte("not json")}
	require.NoError(t, repo.Create(ctx, other))

	logs, err := repo.ListByEntitlement(ctx, entID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, notification.OutcomeIdempotent, logs[0].Outcome)
	assert.Equal(t, []string{"payment"}, logs[0].Query["topic"])
	assert.JSONEq(t, `{"data":{"id":"pay-1"}}`, string(logs[0].Body))
}

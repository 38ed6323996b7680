package mappers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/paysync/internal/domain/entitlement"
	"github.com/orris-inc/paysync/internal/infrastructure/persistence/models"
)

func TestEntitlementMapper_NullableIdentifiers(t *testing.T) {
	m := NewEntitlementMapper()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	ent, err := entitlement.ReconstructEntitlement(5, 7, 2,
		entitlement.State{Status: entitlement.StatusActive, RemotePaymentID: "p1"},
		created, created, 3)
	require.NoError(t, err)

	model, err := m.ToModel(ent)
	require.NoError(t, err)
	assert.Nil(t, model.RemotePreferenceID)
	assert.Nil(t, model.RemotePreapprovalID)
	require.NotNil(t, model.RemotePaymentID)
	assert.Equal(t, "p1", *model.RemotePaymentID)
	assert.Equal(t, "active", model.Status)
	assert.Equal(t, 3, model.Version)
}

func TestEntitlementMapper_ToEntityRejectsUnknownStatus(t *testing.T) {
	m := NewEntitlementMapper()

	_, err := m.ToEntity(&models.EntitlementModel{ID: 1, UserID: 1, PlanID: 1, Status: "revoked", Version: 1})
	assert.ErrorIs(t, err, entitlement.ErrInvalidStatus)
}

func TestEntitlementMapper_ExpiryIsUTC(t *testing.T) {
	m := NewEntitlementMapper()
	loc := time.FixedZone("UTC-6", -6*3600)
	expiry := time.Date(2025, 3, 1, 0, 0, 0, 0, loc)

	ent, err := m.ToEntity(&models.EntitlementModel{ID: 1, UserID: 1, PlanID: 1, Status: "active", ExpiresAt: &expiry, Version: 1})
	require.NoError(t, err)
	require.NotNil(t, ent.ExpiresAt())
	assert.Equal(t, time.UTC, ent.ExpiresAt().Location())
	assert.True(t, expiry.Equal(*ent.ExpiresAt()))
}

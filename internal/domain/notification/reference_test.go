package notification

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateEntitlementID(t *testing.T) {
	tests := []struct {
		name      string
		metadata  map[string]any
		reference string
		wantID    uint
		wantOK    bool
	}{
		{
			name:      "reference segment",
			reference: "user:7|ent:42|order:abc|plan:recurring_monthly",
			wantID:    42,
			wantOK:    true,
		},
		{
			name:      "metadata wins over reference",
			metadata:  map[string]any{"entitlement_id": float64(42)},
			reference: "user:7|ent:99|order:abc|plan:recurring_monthly",
			wantID:    42,
			wantOK:    true,
		},
		{
			name:     "metadata numeric string",
			metadata: map[string]any{"entitlement_id": "17"},
			wantID:   17,
			wantOK:   true,
		},
		{
			name:     "metadata json number",
			metadata: map[string]any{"entitlement_id": json.Number("8")},
			wantID:   8,
			wantOK:   true,
		},
		{
			name:      "zero metadata falls back to reference",
			metadata:  map[string]any{"entitlement_id": 0},
			reference: "ent:5",
			wantID:    5,
			wantOK:    true,
		},
		{
			name:      "garbage metadata falls back to reference",
			metadata:  map[string]any{"entitlement_id": "abc"},
			reference: "user:1|ent:6",
			wantID:    6,
			wantOK:    true,
		},
		{
			name:      "unparseable ent segment",
			reference: "user:7|ent:x|order:abc",
			wantOK:    false,
		},
		{
			name:      "no ent segment",
			reference: "user:7|order:abc",
			wantOK:    false,
		},
		{
			name:   "nothing",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := LocateEntitlementID(tt.metadata, tt.reference)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestReference_RoundTrip(t *testing.T) {
	ref := Reference{UserID: 7, EntitlementID: 42, OrderID: "abc", PlanCode: "recurring_monthly"}
	assert.Equal(t, "user:7|ent:42|order:abc|plan:recurring_monthly", ref.String())

	parsed, err := ParseReference(ref.String())
	require.NoError(t, err)
	assert.Equal(t, ref, parsed)

	id, ok := LocateEntitlementID(ref.Metadata(), "")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
}

func TestParseReference_Errors(t *testing.T) {
	_, err := ParseReference("user:7|order:abc")
	assert.Error(t, err)

	_, err = ParseReference("user:x|ent:1")
	assert.Error(t, err)
}

func TestResolution_EntitlementID(t *testing.T) {
	t.Run("authorized payment falls back to preapproval", func(t *testing.T) {
		res := &Resolution{
			Kind:              KindAuthorizedPayment,
			AuthorizedPayment: &RemoteAuthorizedPayment{ID: "ap1", PreapprovalID: "pre1"},
			Preapproval:       &RemotePreapproval{ID: "pre1", ExternalReference: "user:1|ent:11"},
		}
		id, ok := res.EntitlementID()
		assert.True(t, ok)
		assert.Equal(t, uint(11), id)
	})

	t.Run("merchant order uses the resolved payment", func(t *testing.T) {
		res := &Resolution{
			Kind:          KindMerchantOrder,
			MerchantOrder: &RemoteMerchantOrder{ID: "mo1"},
			Payment:       &RemotePayment{ID: "p1", Metadata: map[string]any{"entitlement_id": float64(3)}},
		}
		id, ok := res.EntitlementID()
		assert.True(t, ok)
		assert.Equal(t, uint(3), id)
		assert.Equal(t, "", res.RemoteStatus())
	})
}

func TestRemoteMerchantOrder_LatestPaymentID(t *testing.T) {
	empty := &RemoteMerchantOrder{ID: "1"}
	_, ok := empty.LatestPaymentID()
	assert.False(t, ok)

	order := &RemoteMerchantOrder{ID: "1", Payments: []OrderPayment{{ID: "100"}, {ID: "200"}}}
	id, ok := order.LatestPaymentID()
	assert.True(t, ok)
	assert.Equal(t, "200", id)
}

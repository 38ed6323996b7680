package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestReconstruct_Validation(t *testing.T) {
	tests := []struct {
		name    string
		params  ReconstructParams
		wantErr bool
	}{
		{
			name:   "valid one time",
			params: ReconstructParams{ID: 1, Code: "one_time_basic", Kind: KindOneTime, Price: 9900, AccessDurationDays: intPtr(30)},
		},
		{
			name:   "valid recurring",
			params: ReconstructParams{ID: 2, Code: "recurring_monthly", Kind: KindRecurring, Price: 4900, IntervalCount: 1, IntervalUnit: IntervalMonths},
		},
		{name: "zero id", params: ReconstructParams{Code: "x", Kind: KindOneTime}, wantErr: true},
		{name: "missing code", params: ReconstructParams{ID: 1, Kind: KindOneTime}, wantErr: true},
		{name: "invalid kind", params: ReconstructParams{ID: 1, Code: "x", Kind: "lifetime"}, wantErr: true},
		{name: "negative price", params: ReconstructParams{ID: 1, Code: "x", Kind: KindOneTime, Price: -1}, wantErr: true},
		{name: "negative duration", params: ReconstructParams{ID: 1, Code: "x", Kind: KindOneTime, AccessDurationDays: intPtr(-3)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Reconstruct(tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.params.Code, p.Code())
		})
	}
}

func TestReconstruct_DefaultCurrency(t *testing.T) {
	p, err := Reconstruct(ReconstructParams{ID: 1, Code: "basic", Kind: KindOneTime})
	require.NoError(t, err)
	assert.Equal(t, DefaultCurrency, p.Currency())
}

func TestPlan_AccessDuration(t *testing.T) {
	oneTime, err := Reconstruct(ReconstructParams{ID: 1, Code: "a", Kind: KindOneTime, AccessDurationDays: intPtr(30)})
	require.NoError(t, err)
	d, ok := oneTime.AccessDuration()
	assert.True(t, ok)
	assert.Equal(t, 30*24*time.Hour, d)

	noDuration, err := Reconstruct(ReconstructParams{ID: 2, Code: "b", Kind: KindOneTime})
	require.NoError(t, err)
	_, ok = noDuration.AccessDuration()
	assert.False(t, ok)

	recurring, err := Reconstruct(ReconstructParams{ID: 3, Code: "c", Kind: KindRecurring, AccessDurationDays: intPtr(30)})
	require.NoError(t, err)
	_, ok = recurring.AccessDuration()
	assert.False(t, ok, "recurring plans never carry a one-time window")
}

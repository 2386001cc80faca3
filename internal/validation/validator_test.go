package validation

import (
	"testing"

	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_SegmentConfig(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		config    domain.SegmentConfig
		wantField string
	}{
		{"valid", domain.SegmentConfig{TargetSavingsPercent: 20, ProcurementTargetPercent: 30}, ""},
		{"bounds inclusive", domain.SegmentConfig{TargetSavingsPercent: 0, ProcurementTargetPercent: 100}, ""},
		{"negative target", domain.SegmentConfig{TargetSavingsPercent: -1, ProcurementTargetPercent: 30}, "targetSavingsPercent"},
		{"procurement over 100", domain.SegmentConfig{TargetSavingsPercent: 10, ProcurementTargetPercent: 101}, "procurementTargetPercent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.config)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			ve, ok := domain.IsValidationError(err)
			require.True(t, ok, "expected ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestStruct_Lead(t *testing.T) {
	v := Default()

	lead := domain.Lead{
		BusinessName: "Corner Deli",
		ContactName:  "Sam",
		Email:        "sam@example.com",
		Category:     "Deli",
	}
	assert.NoError(t, v.Struct(lead))

	lead.Email = "not-an-email"
	err := v.Struct(lead)
	ve, ok := domain.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "email", ve.Field)
	assert.Contains(t, ve.Reason, "email")

	lead.Email = "sam@example.com"
	lead.BusinessName = ""
	ve, ok = domain.IsValidationError(v.Struct(lead))
	require.True(t, ok)
	assert.Equal(t, "businessName", ve.Field)
	assert.Equal(t, "is required", ve.Reason)
}

func TestStruct_LeadAcceptsAnyCategoryLabel(t *testing.T) {
	v := New()

	lead := domain.Lead{
		BusinessName: "Harbour Rowing",
		ContactName:  "Jo",
		Email:        "jo@example.com",
		Category:     "sporting club",
	}
	assert.NoError(t, v.Struct(lead))

	lead.Category = ""
	ve, ok := domain.IsValidationError(v.Struct(lead))
	require.True(t, ok)
	assert.Equal(t, "category", ve.Field)
	assert.Equal(t, "is required", ve.Reason)
}

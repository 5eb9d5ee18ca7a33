package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefdash-labs/briefdash/pkg/models"
)

func validBundle() *models.Bundle {
	return &models.Bundle{
		Daily: models.SeriesByYear{
			"2025": {
				{X: "8/19", Y: models.Float(2923), DateValue: "2025-08-19"},
			},
		},
		Cumulative: models.SeriesByYear{
			"2025": {
				{X: "8/19", Y: models.Float(45123), DateValue: "2025-08-19"},
			},
		},
		Weekly: models.SeriesByYear{},
	}
}

func TestValidateBundle_Valid(t *testing.T) {
	v := ValidateBundle(validBundle())

	assert.True(t, v.Valid)
	assert.Empty(t, v.Errors)
	assert.Empty(t, v.Warnings)
}

func TestValidateBundle_NilBundle(t *testing.T) {
	v := ValidateBundle(nil)

	assert.False(t, v.Valid)
	require.Len(t, v.Errors, 1)
	assert.Equal(t, "bundle is nil", v.Errors[0])
}

func TestValidateBundle_MissingSeriesIsFatal(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Bundle)
		missing string
	}{
		{"daily", func(b *models.Bundle) { b.Daily = nil }, "missing top-level key: daily"},
		{"cumulative", func(b *models.Bundle) { b.Cumulative = nil }, "missing top-level key: cumulative"},
		{"weekly", func(b *models.Bundle) { b.Weekly = nil }, "missing top-level key: weekly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBundle()
			tt.mutate(b)

			v := ValidateBundle(b)
			assert.False(t, v.Valid)
			assert.Contains(t, v.Errors, tt.missing)
		})
	}
}

func TestValidateBundle_LengthMismatchIsWarningOnly(t *testing.T) {
	b := validBundle()
	b.Cumulative["2025"] = append(b.Cumulative["2025"],
		models.ChartDataPoint{X: "8/20", DateValue: "2025-08-20"})

	v := ValidateBundle(b)

	assert.True(t, v.Valid, "a parity mismatch must not block persistence")
	assert.Empty(t, v.Errors)
	require.Len(t, v.Warnings, 1)
	assert.Equal(t, "year 2025: daily has 1 points but cumulative has 2", v.Warnings[0])
}

func TestValidateBundle_EmptySeriesMapsAreValid(t *testing.T) {
	b := &models.Bundle{
		Daily:      models.SeriesByYear{},
		Cumulative: models.SeriesByYear{},
		Weekly:     models.SeriesByYear{},
	}

	v := ValidateBundle(b)
	assert.True(t, v.Valid)
}

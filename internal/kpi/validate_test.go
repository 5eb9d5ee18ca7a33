package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParams_Valid(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		bu    string
	}{
		{"all units", "2025-08-01", "2025-08-19", "ALL"},
		{"specific unit", "2025-01-01", "2025-12-31", "ENGINEER"},
		{"lowercase unit", "2025-08-01", "2025-08-19", "sales"},
		{"mixed case unit", "2025-08-01", "2025-08-19", "Marketing"},
		{"same day", "2025-08-19", "2025-08-19", "CS"},
		{"leap day", "2024-02-29", "2024-03-01", "CORPORATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, ValidateParams(tt.start, tt.end, tt.bu))
		})
	}
}

func TestValidateParams_BadDates(t *testing.T) {
	tests := []struct {
		name  string
		start string
	}{
		{"wrong format", "08/01/2025"},
		{"missing padding", "2025-8-1"},
		{"empty", ""},
		{"rollover day", "2025-02-30"},
		{"leap day in non-leap year", "2025-02-29"},
		{"month thirteen", "2025-13-01"},
		{"garbage", "not-a-date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateParams(tt.start, "2025-08-19", "ALL")
			require.Len(t, errs, 1)
			assert.Equal(t, "start must be a valid date in YYYY-MM-DD format", errs[0])
		})
	}
}

func TestValidateParams_ReversedRange(t *testing.T) {
	errs := ValidateParams("2025-08-19", "2025-08-01", "ALL")
	require.Len(t, errs, 1)
	assert.Equal(t, "start date must be before or equal to end date", errs[0])
}

func TestValidateParams_OrderingSkippedWhenDateInvalid(t *testing.T) {
	// Ordering cannot be judged when one date is malformed; only the
	// format error is reported for it.
	errs := ValidateParams("2025-02-30", "2025-01-01", "ALL")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "start must be a valid date")
}

func TestValidateParams_UnknownBusinessUnit(t *testing.T) {
	errs := ValidateParams("2025-08-01", "2025-08-19", "FINANCE")
	require.Len(t, errs, 1)
	assert.Equal(t, "bu must be one of: ALL, ENGINEER, SALES, CORPORATE, CS, MARKETING", errs[0])
}

func TestValidateParams_CollectsAllErrors(t *testing.T) {
	// Every problem is reported at once, in a fixed order.
	errs := ValidateParams("bad", "worse", "NOPE")
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "start must be a valid date")
	assert.Contains(t, errs[1], "end must be a valid date")
	assert.Contains(t, errs[2], "bu must be one of")
}

func TestValidateParams_EmptyEverything(t *testing.T) {
	errs := ValidateParams("", "", "")
	assert.Len(t, errs, 3)
}

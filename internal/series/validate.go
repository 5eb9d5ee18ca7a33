package series

import (
	"fmt"

	"github.com/briefdash-labs/briefdash/pkg/models"
)

// Validation is the outcome of a structural bundle check. Errors block the
// snapshot write; warnings are logged and the write proceeds.
type Validation struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// ValidateBundle shape-checks a reshaped bundle before it may be persisted.
// Missing top-level series maps are fatal. A per-year length mismatch
// between daily and cumulative is deliberately only a warning: it signals
// a data anomaly worth investigating, not a malformed snapshot.
func ValidateBundle(b *models.Bundle) Validation {
	v := Validation{}

	if b == nil {
		v.Errors = append(v.Errors, "bundle is nil")
		return v
	}
	if b.Daily == nil {
		v.Errors = append(v.Errors, "missing top-level key: daily")
	}
	if b.Cumulative == nil {
		v.Errors = append(v.Errors, "missing top-level key: cumulative")
	}
	if b.Weekly == nil {
		v.Errors = append(v.Errors, "missing top-level key: weekly")
	}
	if len(v.Errors) > 0 {
		return v
	}

	for year, daily := range b.Daily {
		cumulative := b.Cumulative[year]
		if len(daily) != len(cumulative) {
			v.Warnings = append(v.Warnings, fmt.Sprintf(
				"year %s: daily has %d points but cumulative has %d", year, len(daily), len(cumulative)))
		}
	}

	v.Valid = true
	return v
}

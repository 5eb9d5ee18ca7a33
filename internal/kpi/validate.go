// Package kpi implements the cost-controlled query path: parameter
// validation, SQL construction, dry-run estimation and guarded execution.
package kpi

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ValidBusinessUnits is the category whitelist. "ALL" is a sentinel meaning
// no category restriction, not a literal value.
var ValidBusinessUnits = []string{
	"ALL",
	"ENGINEER",
	"SALES",
	"CORPORATE",
	"CS",
	"MARKETING",
}

var dateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// validDate reports whether s is a real calendar date in YYYY-MM-DD form.
// time.Parse alone is not enough: it must not roll "2025-02-30" over into
// March, so the parsed components are compared back against the input.
func validDate(s string) bool {
	if !dateFormat.MatchString(s) {
		return false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return false
	}
	return t.Format("2006-01-02") == s
}

// validBusinessUnit matches case-insensitively against the whitelist.
func validBusinessUnit(bu string) bool {
	upper := strings.ToUpper(bu)
	for _, v := range ValidBusinessUnits {
		if upper == v {
			return true
		}
	}
	return false
}

// ValidateParams checks the raw request parameters and returns every problem
// found, in a fixed order: start, end, ordering, business unit. An empty
// slice means the parameters are valid. It never panics; errors are data.
func ValidateParams(start, end, bu string) []string {
	var errs []string

	if start == "" || !validDate(start) {
		errs = append(errs, "start must be a valid date in YYYY-MM-DD format")
	}
	if end == "" || !validDate(end) {
		errs = append(errs, "end must be a valid date in YYYY-MM-DD format")
	}

	// Ordering is only checkable when both dates parse on their own.
	if start != "" && end != "" && validDate(start) && validDate(end) {
		if start > end {
			errs = append(errs, "start date must be before or equal to end date")
		}
	}

	if bu == "" || !validBusinessUnit(bu) {
		errs = append(errs, fmt.Sprintf("bu must be one of: %s", strings.Join(ValidBusinessUnits, ", ")))
	}

	return errs
}

package kpi

import (
	"context"

	"github.com/briefdash-labs/briefdash/internal/errors"
	"github.com/briefdash-labs/briefdash/internal/warehouse"
)

const bytesPerGB = 1 << 30

// Estimate is the outcome of one dry-run. Derived per request, never stored.
type Estimate struct {
	BytesProcessed     int64
	GigabytesProcessed float64
	ExceedsLimit       bool
	LimitGB            float64
}

// Estimator converts dry-run byte counts into a pass/fail cost decision.
type Estimator struct {
	runner  warehouse.Runner
	limitGB float64
}

// NewEstimator creates an Estimator with the given scan ceiling.
func NewEstimator(runner warehouse.Runner, limitGB float64) *Estimator {
	return &Estimator{runner: runner, limitGB: limitGB}
}

// Estimate dry-runs the statement and compares the scan estimate against the
// ceiling. GB conversion is binary (1024^3) to match the warehouse's own
// billing display. The comparison is strictly greater: an estimate of
// exactly the ceiling passes.
func (e *Estimator) Estimate(ctx context.Context, sql string) (*Estimate, error) {
	bytes, err := e.runner.DryRun(ctx, sql)
	if err != nil {
		return nil, errors.NewEstimationFailed(err)
	}

	gb := float64(bytes) / float64(bytesPerGB)
	return &Estimate{
		BytesProcessed:     bytes,
		GigabytesProcessed: gb,
		ExceedsLimit:       gb > e.limitGB,
		LimitGB:            e.limitGB,
	}, nil
}

package kpi

import (
	"context"
	"time"

	"github.com/briefdash-labs/briefdash/internal/errors"
	"github.com/briefdash-labs/briefdash/internal/warehouse"
)

// GuardedResult is the outcome of a full estimate-then-execute cycle.
type GuardedResult struct {
	Rows           []warehouse.Row
	JobID          string
	BytesProcessed int64
	BytesBilled    int64
	EstimatedGB    float64
	Duration       time.Duration
}

// Guard is the only path to query execution. It dry-runs the exact SQL it
// is about to execute, rejects over-ceiling estimates, and caps billing on
// the real run with the same ceiling in case data grew between estimate and
// execute. One shot: a failed execution is returned, never retried.
type Guard struct {
	runner    warehouse.Runner
	estimator *Estimator
	limitGB   float64
	labels    map[string]string
}

// NewGuard creates a Guard with the given scan ceiling and base job labels.
func NewGuard(runner warehouse.Runner, limitGB float64, labels map[string]string) *Guard {
	return &Guard{
		runner:    runner,
		estimator: NewEstimator(runner, limitGB),
		limitGB:   limitGB,
		labels:    labels,
	}
}

// LimitGB returns the configured scan ceiling.
func (g *Guard) LimitGB() float64 { return g.limitGB }

// Run executes the statement behind the cost gate. user is attached to the
// job labels truncated to 8 characters, advisory only.
func (g *Guard) Run(ctx context.Context, sql string, timeout time.Duration, user string) (*GuardedResult, error) {
	start := time.Now()

	estimate, err := g.estimator.Estimate(ctx, sql)
	if err != nil {
		return nil, err
	}
	if estimate.ExceedsLimit {
		return nil, errors.NewCostExceeded(estimate.GigabytesProcessed, g.limitGB)
	}

	labels := make(map[string]string, len(g.labels)+1)
	for k, v := range g.labels {
		labels[k] = v
	}
	if user != "" {
		if len(user) > 8 {
			user = user[:8]
		}
		labels["user"] = user
	}

	result, err := g.runner.Run(ctx, sql, warehouse.RunOptions{
		MaxBytesBilled: int64(g.limitGB * float64(bytesPerGB)),
		Timeout:        timeout,
		Labels:         labels,
	})
	if err != nil {
		jobID := ""
		if result != nil {
			jobID = result.JobID
		}
		return nil, errors.NewExecutionFailed(jobID, err)
	}

	return &GuardedResult{
		Rows:           result.Rows,
		JobID:          result.JobID,
		BytesProcessed: result.BytesProcessed,
		BytesBilled:    result.BytesBilled,
		EstimatedGB:    estimate.GigabytesProcessed,
		Duration:       time.Since(start),
	}, nil
}

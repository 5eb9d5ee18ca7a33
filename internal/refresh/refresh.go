// Package refresh runs the snapshot refresh cycle: fan out the independent
// warehouse queries, reshape the results, validate and persist one snapshot
// per metric family.
package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/briefdash-labs/briefdash/internal/kpi"
	"github.com/briefdash-labs/briefdash/internal/observability"
	"github.com/briefdash-labs/briefdash/internal/series"
	"github.com/briefdash-labs/briefdash/internal/snapshot"
	"github.com/briefdash-labs/briefdash/pkg/models"
)

// Refresher orchestrates one refresh cycle. Every query goes through the
// cost guard; there is no path around the estimate.
type Refresher struct {
	guard      *kpi.Guard
	builder    *kpi.Builder
	store      snapshot.Store
	normalizer *series.Normalizer
	reshaper   *series.Reshaper
	audit      observability.QueryLogger
	log        zerolog.Logger
	timeout    time.Duration
}

// New creates a Refresher. timeout bounds each individual table query.
func New(
	guard *kpi.Guard,
	builder *kpi.Builder,
	store snapshot.Store,
	audit observability.QueryLogger,
	log zerolog.Logger,
	timeout time.Duration,
) *Refresher {
	return &Refresher{
		guard:      guard,
		builder:    builder,
		store:      store,
		normalizer: series.NewNormalizer(log),
		reshaper:   series.NewReshaper(log),
		audit:      audit,
		log:        log,
		timeout:    timeout,
	}
}

// RefreshAll refreshes every metric family concurrently. The families are
// independent read-only queries; a failure in one never blocks the others.
// The returned results report per-family outcomes, including explicit
// degraded persists where only part of a family's queries succeeded.
func (r *Refresher) RefreshAll(ctx context.Context, user string) []models.FamilyResult {
	results := make([]models.FamilyResult, 4)

	// Plain group, no shared cancellation: one family failing must not
	// cancel the others mid-flight.
	var g errgroup.Group

	g.Go(func() error {
		results[0] = r.refreshSouke(ctx, user)
		return nil
	})
	g.Go(func() error {
		results[1] = r.refreshNaitei(ctx, user)
		return nil
	})
	g.Go(func() error {
		results[2] = r.refreshChannels(ctx, user, snapshot.FamilyChannelOverview, r.builder.ChannelOverviewQuery())
		return nil
	})
	g.Go(func() error {
		results[3] = r.refreshChannels(ctx, user, snapshot.FamilyChannelDetail, r.builder.ChannelDetailQuery())
		return nil
	})

	_ = g.Wait()
	return results
}

func (r *Refresher) refreshSouke(ctx context.Context, user string) models.FamilyResult {
	family := snapshot.FamilySouke

	rows, err := r.runQuery(ctx, family, r.builder.ChartQuery(), user)
	if err != nil {
		return failed(family, err)
	}

	bundle := r.reshaper.Chart(rows, series.Options{})
	return r.persistBundle(ctx, family, bundle, user)
}

func (r *Refresher) refreshNaitei(ctx context.Context, user string) models.FamilyResult {
	family := snapshot.FamilyNaitei

	var daily, cumulative, weekly []map[string]interface{}
	var dailyErr, cumulativeErr, weeklyErr error

	// Independent queries, fanned out. Each passes the guard on its own.
	var g errgroup.Group
	g.Go(func() error {
		daily, dailyErr = r.runQuery(ctx, family, r.builder.OfferDailyQuery(), user)
		return nil
	})
	g.Go(func() error {
		cumulative, cumulativeErr = r.runQuery(ctx, family, r.builder.OfferCumulativeQuery(), user)
		return nil
	})
	g.Go(func() error {
		weekly, weeklyErr = r.runQuery(ctx, family, r.builder.OfferWeeklyQuery(), user)
		return nil
	})
	_ = g.Wait()

	failures := 0
	reason := ""
	for _, part := range []struct {
		name string
		err  error
	}{
		{"daily", dailyErr},
		{"cumulative", cumulativeErr},
		{"weekly", weeklyErr},
	} {
		if part.err != nil {
			failures++
			reason += fmt.Sprintf("%s: %v; ", part.name, part.err)
		}
	}
	if failures == 3 {
		return failed(family, fmt.Errorf("all offer queries failed: %s", reason))
	}

	bundle := r.reshaper.Offer(daily, cumulative, weekly, series.Options{})
	if failures > 0 {
		// Partial failure persists as explicit degraded output, never as
		// silent placeholder data.
		bundle.Metadata.Degraded = true
		bundle.Metadata.DegradedReason = reason
		r.log.Warn().Str("family", family).Str("reason", reason).Msg("persisting degraded bundle")
	}
	return r.persistBundle(ctx, family, bundle, user)
}

func (r *Refresher) refreshChannels(ctx context.Context, user, family, sql string) models.FamilyResult {
	rows, err := r.runQuery(ctx, family, sql, user)
	if err != nil {
		return failed(family, err)
	}

	metrics := make([]models.ChannelMetric, 0, len(rows))
	for _, row := range rows {
		m := models.ChannelMetric{}
		m.Category, _ = rowString(row, "channel_category")
		m.Latest = rowFloat(row, "latest_count")
		m.PrevDay = rowFloat(row, "prev_day_count")
		m.PrevWeek = rowFloat(row, "prev_week_count")
		m.PrevYear = rowFloat(row, "prev_year_count")
		m.SharePct = rowFloat(row, "share_pct")
		m.DayGrowth = rowFloatPtr(row, "day_growth_rate")
		m.WeekGrowth = rowFloatPtr(row, "week_growth_rate")
		m.YearGrowth = rowFloatPtr(row, "year_growth_rate")
		metrics = append(metrics, m)
	}

	data, err := json.Marshal(metrics)
	if err != nil {
		return failed(family, err)
	}
	return r.persist(ctx, family, data, user, false, "")
}

func (r *Refresher) persistBundle(ctx context.Context, family string, bundle *models.Bundle, user string) models.FamilyResult {
	validation := series.ValidateBundle(bundle)
	for _, w := range validation.Warnings {
		r.log.Warn().Str("family", family).Str("warning", w).Msg("bundle shape warning")
	}
	if !validation.Valid {
		return failed(family, fmt.Errorf("bundle shape invalid: %v", validation.Errors))
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		return failed(family, err)
	}
	return r.persist(ctx, family, data, user, bundle.Metadata.Degraded, bundle.Metadata.DegradedReason)
}

func (r *Refresher) persist(ctx context.Context, family string, data []byte, user string, degraded bool, reason string) models.FamilyResult {
	snap := &snapshot.Snapshot{
		Family:    family,
		Version:   snapshot.CurrentVersion,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: user,
	}
	if err := r.store.SetLatest(ctx, family, snap); err != nil {
		return failed(family, err)
	}

	result := models.FamilyResult{Family: family, Persisted: true, Degraded: degraded}
	if degraded {
		result.Error = reason
	}
	return result
}

// runQuery executes one guarded query and writes the audit entry for it.
func (r *Refresher) runQuery(ctx context.Context, family, sql, user string) ([]map[string]interface{}, error) {
	queryID := uuid.NewString()
	start := time.Now()

	result, err := r.guard.Run(ctx, sql, r.timeout, user)

	entry := observability.QueryLogEntry{
		QueryID:  queryID,
		User:     user,
		Family:   family,
		Duration: time.Since(start),
	}
	if err != nil {
		entry.Outcome = "error"
		entry.Error = err.Error()
	} else {
		entry.Outcome = "success"
		entry.JobID = result.JobID
		entry.EstimatedGB = result.EstimatedGB
		entry.BytesProcessed = result.BytesProcessed
	}
	if logErr := r.audit.LogQuery(ctx, entry); logErr != nil {
		r.log.Error().Err(logErr).Msg("audit log write failed")
	}

	if err != nil {
		return nil, err
	}
	return r.normalizer.Rows(result.Rows), nil
}

func failed(family string, err error) models.FamilyResult {
	return models.FamilyResult{Family: family, Error: err.Error()}
}

func rowString(row map[string]interface{}, key string) (string, bool) {
	s, ok := row[key].(string)
	return s, ok
}

func rowFloat(row map[string]interface{}, key string) float64 {
	switch v := row[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func rowFloatPtr(row map[string]interface{}, key string) *float64 {
	switch v := row[key].(type) {
	case float64:
		return &v
	case int64:
		f := float64(v)
		return &f
	}
	return nil
}

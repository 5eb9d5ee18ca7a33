package series

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefdash-labs/briefdash/pkg/models"
)

func testReshaper() *Reshaper {
	return NewReshaper(zerolog.Nop())
}

func dailyRow(date string, count float64) map[string]interface{} {
	return map[string]interface{}{
		"data_type":            "daily",
		"first_determine_date": date,
		"daily_count":          count,
	}
}

func weeklyRow(weekStart string, weekNumber, count float64) map[string]interface{} {
	return map[string]interface{}{
		"data_type":            "weekly",
		"first_determine_date": weekStart,
		"week_number":          weekNumber,
		"daily_count":          count,
	}
}

func TestChart_DailyBucketing(t *testing.T) {
	r := testReshaper()
	now := time.Date(2025, 8, 19, 12, 0, 0, 0, time.UTC)

	bundle := r.Chart([]map[string]interface{}{
		dailyRow("2025-08-18", 2847),
		dailyRow("2025-08-19", 2923),
	}, Options{Now: now})

	require.Contains(t, bundle.Daily, "2025")
	points := bundle.Daily["2025"]
	require.GreaterOrEqual(t, len(points), 2)

	assert.Equal(t, "8/18", points[0].X)
	assert.Equal(t, "2025-08-18", points[0].DateValue)
	require.NotNil(t, points[0].Y)
	assert.Equal(t, 2847.0, *points[0].Y)
}

func TestChart_CumulativeIsComputedNotTrusted(t *testing.T) {
	r := testReshaper()
	now := time.Date(2025, 8, 3, 12, 0, 0, 0, time.UTC)

	// Rows carry a bogus cumulative column; the reshaper must recompute.
	rows := []map[string]interface{}{
		dailyRow("2025-08-01", 10),
		dailyRow("2025-08-02", 20),
		dailyRow("2025-08-03", 30),
	}
	rows[0]["cumulative_count"] = float64(999)

	bundle := r.Chart(rows, Options{Now: now})

	cum := bundle.Cumulative["2025"]
	require.GreaterOrEqual(t, len(cum), 3)
	assert.Equal(t, 10.0, *cum[0].Y)
	assert.Equal(t, 30.0, *cum[1].Y)
	assert.Equal(t, 60.0, *cum[2].Y)
}

func TestChart_TrailingNullFillCurrentYearOnly(t *testing.T) {
	r := testReshaper()
	now := time.Date(2025, 8, 19, 12, 0, 0, 0, time.UTC)

	bundle := r.Chart([]map[string]interface{}{
		// Prior year: full month of real data is not required for the test,
		// only that no synthetic points are appended.
		dailyRow("2024-08-30", 100),
		dailyRow("2024-08-31", 110),
		// Current year up to the 19th.
		dailyRow("2025-08-18", 2847),
		dailyRow("2025-08-19", 2923),
	}, Options{Now: now})

	current := bundle.Daily["2025"]
	// 18th + 19th real, then the 20th..31st null-filled: 14 points.
	require.Len(t, current, 14)

	last := current[len(current)-1]
	assert.Equal(t, "2025-08-31", last.DateValue)
	assert.Nil(t, last.Y, "future dates carry null, not zero")

	real := current[1]
	require.NotNil(t, real.Y, "a real data point must keep its value")
	assert.Equal(t, 2923.0, *real.Y)

	// Completed years never get synthetic trailing points.
	assert.Len(t, bundle.Daily["2024"], 2)
}

func TestChart_NullFillPreservesLengthParity(t *testing.T) {
	r := testReshaper()
	now := time.Date(2025, 8, 19, 12, 0, 0, 0, time.UTC)

	bundle := r.Chart([]map[string]interface{}{
		dailyRow("2025-08-18", 2847),
		dailyRow("2025-08-19", 2923),
	}, Options{Now: now})

	assert.Equal(t, len(bundle.Daily["2025"]), len(bundle.Cumulative["2025"]))

	validation := ValidateBundle(bundle)
	assert.True(t, validation.Valid)
	assert.Empty(t, validation.Warnings)
}

func TestChart_ZeroIsARealDataPoint(t *testing.T) {
	r := testReshaper()
	now := time.Date(2025, 8, 19, 12, 0, 0, 0, time.UTC)

	bundle := r.Chart([]map[string]interface{}{
		dailyRow("2025-08-18", 0),
	}, Options{Now: now})

	point := bundle.Daily["2025"][0]
	require.NotNil(t, point.Y, "a zero-count day is data, not a gap")
	assert.Equal(t, 0.0, *point.Y)
}

func TestChart_WeeklyBucketing(t *testing.T) {
	r := testReshaper()
	now := time.Date(2025, 8, 19, 12, 0, 0, 0, time.UTC)

	bundle := r.Chart([]map[string]interface{}{
		weeklyRow("2025-07-28", 31, 18234),
		weeklyRow("2025-08-04", 32, 19456),
	}, Options{Now: now})

	weeks := bundle.Weekly["2025"]
	require.Len(t, weeks, 2)
	assert.Equal(t, "Week 31", weeks[0].X)
	assert.Equal(t, "2025-07-28", weeks[0].DateValue)
	assert.Equal(t, 18234.0, *weeks[0].Y)
}

func TestChart_BadRowSkippedNotFatal(t *testing.T) {
	r := testReshaper()
	now := time.Date(2025, 8, 19, 12, 0, 0, 0, time.UTC)

	bundle := r.Chart([]map[string]interface{}{
		dailyRow("garbage-date", 1),
		dailyRow("2025-08-19", 2923),
	}, Options{Now: now})

	// The bad row is dropped; the good one survives.
	var realPoints int
	for _, p := range bundle.Daily["2025"] {
		if p.Y != nil {
			realPoints++
		}
	}
	assert.Equal(t, 1, realPoints)
}

func TestChart_SortedAscendingByDate(t *testing.T) {
	r := testReshaper()
	now := time.Date(2025, 8, 19, 12, 0, 0, 0, time.UTC)

	bundle := r.Chart([]map[string]interface{}{
		dailyRow("2025-08-19", 3),
		dailyRow("2025-08-01", 1),
		dailyRow("2025-08-10", 2),
	}, Options{Now: now})

	points := bundle.Daily["2025"]
	for i := 1; i < len(points); i++ {
		assert.LessOrEqual(t, points[i-1].DateValue, points[i].DateValue)
	}
}

func TestOffer_NullCurrentStaysNull(t *testing.T) {
	r := testReshaper()

	bundle := r.Offer([]map[string]interface{}{
		{
			"offer_date":            "2025-08-19",
			"offer_count_current":   float64(12),
			"offer_count_last_year": float64(9),
		},
		{
			"offer_date":            "2025-08-25",
			"offer_count_current":   nil, // future date
			"offer_count_last_year": float64(7),
		},
	}, nil, nil, Options{Now: time.Date(2025, 8, 19, 0, 0, 0, 0, time.UTC)})

	current := bundle.Daily["2025"]
	require.Len(t, current, 2)
	require.NotNil(t, current[0].Y)
	assert.Equal(t, 12.0, *current[0].Y)
	assert.Nil(t, current[1].Y)

	prior := bundle.Daily["2024"]
	require.Len(t, prior, 2)
	assert.Equal(t, "2024-08-19", prior[0].DateValue)
	assert.Equal(t, 9.0, *prior[0].Y)
}

func TestOffer_WeeklyAlignedByISOWeek(t *testing.T) {
	r := testReshaper()

	bundle := r.Offer(nil, nil, []map[string]interface{}{
		{
			"week_start_date":       "2025-07-28", // ISO week 31
			"offer_count_current":   float64(25),
			"offer_count_last_year": float64(22),
		},
	}, Options{Now: time.Date(2025, 8, 19, 0, 0, 0, 0, time.UTC)})

	weeks := bundle.Weekly["2025"]
	require.Len(t, weeks, 1)
	assert.Equal(t, "Week 31", weeks[0].X)
	assert.Equal(t, 25.0, *weeks[0].Y)

	prior := bundle.Weekly["2024"]
	require.Len(t, prior, 1)
	assert.Equal(t, 22.0, *prior[0].Y)
	// 364 days back keeps the Monday anchor.
	assert.Equal(t, "2024-07-29", prior[0].DateValue)
}

func TestDailyLastYear_MatchesMonthDay(t *testing.T) {
	prior := []models.ChartDataPoint{
		{DateValue: "2024-08-18", Y: models.Float(100)},
		{DateValue: "2024-08-19", Y: models.Float(150)},
	}

	// 2025-08-19 is a Tuesday; 365-day subtraction would land on
	// 2024-08-20. Month/day matching must return the 8/19 row.
	date := time.Date(2025, 8, 19, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 150.0, DailyLastYear(prior, date))
}

func TestDailyLastYear_LeapDayResolvesToZero(t *testing.T) {
	prior := []models.ChartDataPoint{
		{DateValue: "2023-02-28", Y: models.Float(80)},
		{DateValue: "2023-03-01", Y: models.Float(90)},
	}

	// Feb 29 2024 has no counterpart in 2023: resolves to 0, not an
	// error and not the neighboring day.
	leapDay := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0.0, DailyLastYear(prior, leapDay))
}

func TestDailyLastYear_AcrossLeapBoundary(t *testing.T) {
	prior := []models.ChartDataPoint{
		{DateValue: "2024-02-29", Y: models.Float(70)},
		{DateValue: "2024-03-01", Y: models.Float(75)},
	}

	// 2025-03-01 minus 365 days would land on 2024-02-29 (wrong).
	// Month/day matching returns the 3/1 row.
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 75.0, DailyLastYear(prior, date))
}

func TestWeeklyLastYear_MatchesISOWeek(t *testing.T) {
	prior := []models.ChartDataPoint{
		{DateValue: "2024-07-29", Y: models.Float(25678)}, // ISO week 31
		{DateValue: "2024-08-05", Y: models.Float(24891)}, // ISO week 32
	}

	assert.Equal(t, 24891.0, WeeklyLastYear(prior, 32))
	assert.Equal(t, 0.0, WeeklyLastYear(prior, 40))
}

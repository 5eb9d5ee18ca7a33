package series

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/briefdash-labs/briefdash/pkg/models"
)

// Options parameterizes a reshape pass.
type Options struct {
	// Now anchors "today" for trailing null-fill. Zero means time.Now().
	Now time.Time

	// DataSource is recorded in the bundle metadata.
	DataSource string
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// Reshaper buckets normalized rows into year-keyed daily, cumulative and
// weekly series.
type Reshaper struct {
	log zerolog.Logger
}

// NewReshaper creates a Reshaper logging skipped rows to the given logger.
func NewReshaper(log zerolog.Logger) *Reshaper {
	return &Reshaper{log: log}
}

// Chart reshapes rows from the integrated chart query. Rows carry a
// data_type discriminator ("daily" or "weekly") and a year column.
//
// Daily values are bucketed by exact date. Cumulative sums are recomputed
// here per year partition rather than trusted from the warehouse, because
// the trailing null-fill below appends points the warehouse never saw.
// For the current year, dates after today through month end are emitted
// with a nil Y so the chart renders a gap instead of truncating the axis;
// completed years get only real data points.
//
// A row whose date cannot be parsed is skipped with a log line. One bad
// row never aborts the batch.
func (r *Reshaper) Chart(rows []map[string]interface{}, opts Options) *models.Bundle {
	bundle := newBundle(len(rows), opts)

	type dailyEntry struct {
		date  time.Time
		value float64
	}
	dailyByYear := map[string][]dailyEntry{}

	for i, row := range rows {
		dataType, _ := asString(row["data_type"])
		switch dataType {
		case "daily":
			dateStr, _ := asString(row["first_determine_date"])
			date, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				r.log.Warn().Int("row", i).Str("date", dateStr).Msg("skipping row with unparseable date")
				continue
			}
			value, _ := asFloat(row["daily_count"])
			year := strconv.Itoa(date.Year())
			dailyByYear[year] = append(dailyByYear[year], dailyEntry{date: date, value: value})

		case "weekly":
			weekStart, _ := asString(row["first_determine_date"])
			if weekStart == "" {
				weekStart, _ = asString(row["week_start"])
			}
			date, err := time.Parse("2006-01-02", weekStart)
			if err != nil {
				r.log.Warn().Int("row", i).Str("date", weekStart).Msg("skipping row with unparseable week start")
				continue
			}
			value, _ := asFloat(row["daily_count"])
			weekNumber, ok := asFloat(row["week_number"])
			if !ok {
				_, isoWeek := date.ISOWeek()
				weekNumber = float64(isoWeek)
			}
			year := strconv.Itoa(date.Year())
			bundle.Weekly[year] = append(bundle.Weekly[year], models.ChartDataPoint{
				X:         fmt.Sprintf("Week %d", int(weekNumber)),
				Y:         models.Float(value),
				Label:     fmt.Sprintf("%s年第%d週", year, int(weekNumber)),
				DateValue: weekStart,
			})
		}
	}

	now := opts.now()
	currentYear := strconv.Itoa(now.Year())

	for year, entries := range dailyByYear {
		sort.Slice(entries, func(i, j int) bool { return entries[i].date.Before(entries[j].date) })

		var running float64
		for _, e := range entries {
			running += e.value
			point := dailyPoint(e.date, models.Float(e.value))
			bundle.Daily[year] = append(bundle.Daily[year], point)

			cum := dailyPoint(e.date, models.Float(running))
			cum.Label += "累計"
			bundle.Cumulative[year] = append(bundle.Cumulative[year], cum)
		}

		if year != currentYear || len(entries) == 0 {
			continue
		}

		// Trailing null-fill: current year only, from the day after the
		// last real data point (or after today, whichever is later)
		// through month end. Both daily and cumulative get a point so
		// the per-year length parity holds.
		last := entries[len(entries)-1].date
		monthEnd := lastDayOfMonth(now)
		for d := last.AddDate(0, 0, 1); !d.After(monthEnd); d = d.AddDate(0, 0, 1) {
			if !d.After(now) {
				continue
			}
			point := dailyPoint(d, nil)
			bundle.Daily[year] = append(bundle.Daily[year], point)

			cum := dailyPoint(d, nil)
			cum.Label += "累計"
			bundle.Cumulative[year] = append(bundle.Cumulative[year], cum)
		}
	}

	sortBundle(bundle)
	return bundle
}

// Offer reshapes the offer-count result sets. Each row pairs a current-year
// value with the aligned prior-year value resolved by the warehouse: by
// month and day for daily/cumulative rows, by ISO week for weekly rows.
// A nil current value marks a future date and stays nil.
func (r *Reshaper) Offer(daily, cumulative, weekly []map[string]interface{}, opts Options) *models.Bundle {
	bundle := newBundle(len(daily)+len(cumulative)+len(weekly), opts)

	r.offerDaily(daily, bundle.Daily, false)
	r.offerDaily(cumulative, bundle.Cumulative, true)
	r.offerWeekly(weekly, bundle.Weekly)

	sortBundle(bundle)
	return bundle
}

func (r *Reshaper) offerDaily(rows []map[string]interface{}, series models.SeriesByYear, cumulative bool) {
	for i, row := range rows {
		dateStr, _ := asString(row["offer_date"])
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			r.log.Warn().Int("row", i).Str("date", dateStr).Msg("skipping offer row with unparseable date")
			continue
		}

		year := strconv.Itoa(date.Year())
		var y *float64
		if v, ok := asFloat(row["offer_count_current"]); ok {
			y = models.Float(v)
		}
		point := dailyPoint(date, y)
		if cumulative {
			point.Label += "累計"
		}
		series[year] = append(series[year], point)

		// The prior-year counterpart shares month and day. Feb 29 has no
		// counterpart in a non-leap year and is simply not emitted there;
		// lookups for it resolve to 0 via DailyLastYear.
		prevDate, ok := sameMonthDayPrevYear(date)
		if !ok {
			continue
		}
		prevYear := strconv.Itoa(prevDate.Year())
		lastYearVal, _ := asFloat(row["offer_count_last_year"])
		prev := dailyPoint(prevDate, models.Float(lastYearVal))
		if cumulative {
			prev.Label += "累計"
		}
		series[prevYear] = append(series[prevYear], prev)
	}
}

func (r *Reshaper) offerWeekly(rows []map[string]interface{}, series models.SeriesByYear) {
	for i, row := range rows {
		weekStart, _ := asString(row["week_start_date"])
		date, err := time.Parse("2006-01-02", weekStart)
		if err != nil {
			r.log.Warn().Int("row", i).Str("date", weekStart).Msg("skipping offer row with unparseable week start")
			continue
		}

		_, isoWeek := date.ISOWeek()
		year := strconv.Itoa(date.Year())
		value, _ := asFloat(row["offer_count_current"])
		series[year] = append(series[year], models.ChartDataPoint{
			X:         fmt.Sprintf("Week %d", isoWeek),
			Y:         models.Float(value),
			Label:     fmt.Sprintf("%s年第%d週", year, isoWeek),
			DateValue: weekStart,
		})

		// Same ISO week one year back: 364 days keeps the Monday anchor.
		prevDate := date.AddDate(0, 0, -364)
		prevYearStr := strconv.Itoa(prevDate.Year())
		lastYearVal, _ := asFloat(row["offer_count_last_year"])
		series[prevYearStr] = append(series[prevYearStr], models.ChartDataPoint{
			X:         fmt.Sprintf("Week %d", isoWeek),
			Y:         models.Float(lastYearVal),
			Label:     fmt.Sprintf("%s年第%d週", prevYearStr, isoWeek),
			DateValue: prevDate.Format("2006-01-02"),
		})
	}
}

// DailyLastYear looks up the prior-year value for a current-year date by
// matching month and day, never by subtracting days: raw subtraction
// misaligns around leap years. February 29 has no prior-year counterpart
// and resolves to 0.
func DailyLastYear(prior []models.ChartDataPoint, date time.Time) float64 {
	for _, p := range prior {
		d, err := time.Parse("2006-01-02", p.DateValue)
		if err != nil {
			continue
		}
		if d.Month() == date.Month() && d.Day() == date.Day() {
			if p.Y == nil {
				return 0
			}
			return *p.Y
		}
	}
	return 0
}

// WeeklyLastYear looks up the prior-year value for a week by matching the
// ISO week number within the prior ISO year.
func WeeklyLastYear(prior []models.ChartDataPoint, isoWeek int) float64 {
	for _, p := range prior {
		d, err := time.Parse("2006-01-02", p.DateValue)
		if err != nil {
			continue
		}
		if _, w := d.ISOWeek(); w == isoWeek {
			if p.Y == nil {
				return 0
			}
			return *p.Y
		}
	}
	return 0
}

func newBundle(recordCount int, opts Options) *models.Bundle {
	source := opts.DataSource
	if source == "" {
		source = "bigquery-live"
	}
	return &models.Bundle{
		Daily:      models.SeriesByYear{},
		Cumulative: models.SeriesByYear{},
		Weekly:     models.SeriesByYear{},
		Metadata: models.BundleMetadata{
			LastUpdated: opts.now().UTC(),
			DataSource:  source,
			RecordCount: recordCount,
		},
	}
}

func dailyPoint(date time.Time, y *float64) models.ChartDataPoint {
	return models.ChartDataPoint{
		X:         fmt.Sprintf("%d/%d", int(date.Month()), date.Day()),
		Y:         y,
		Label:     fmt.Sprintf("%d月%d日", int(date.Month()), date.Day()),
		DateValue: date.Format("2006-01-02"),
	}
}

// sameMonthDayPrevYear maps a date to the same month/day one year earlier.
// Returns false for Feb 29 when the prior year is not a leap year.
func sameMonthDayPrevYear(date time.Time) (time.Time, bool) {
	prev := time.Date(date.Year()-1, date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if prev.Month() != date.Month() || prev.Day() != date.Day() {
		return time.Time{}, false
	}
	return prev, true
}

func lastDayOfMonth(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

func sortBundle(b *models.Bundle) {
	for _, series := range []models.SeriesByYear{b.Daily, b.Cumulative, b.Weekly} {
		for _, points := range series {
			sort.Slice(points, func(i, j int) bool {
				return points[i].DateValue < points[j].DateValue
			})
		}
	}
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

package kpi

import (
	"fmt"
	"strings"
)

// Builder assembles the fixed SQL catalogue served by the gateway. All SQL
// is server-owned text: request parameters are validated first and embedded
// as literals, never interpolated from unvalidated input.
type Builder struct {
	project string
}

// NewBuilder creates a Builder for the given warehouse project.
func NewBuilder(project string) *Builder {
	return &Builder{project: project}
}

func (b *Builder) table(name string) string {
	return fmt.Sprintf("`%s.%s`", b.project, name)
}

// reentryExclusionCTE is the anti-join source excluding records flagged by
// the re-entry dataset. Every aggregation variant must apply it; keeping it
// as one fragment keeps the exclusion logic identical across queries.
func (b *Builder) reentryExclusionCTE() string {
	return fmt.Sprintf(`reentry_exclusions AS (
      SELECT
        entry_complete_date AS first_determine_date,
        jobseeker_id,
        jobseeker_branch_id,
        1 AS exclude_flg
      FROM %s
      WHERE entry_start_type = "pdt1db_to_pdt2_entry_form"
        AND entry_complete_date >= "2025-05-14"
      GROUP BY ALL
    )`, b.table("datamart.v_rag_entry_users_for_ro2"))
}

// KPIQuery builds the ad-hoc KPI query for a validated request. When the
// business unit is the "ALL" sentinel no category clause is emitted at all;
// any other value is upper-cased and embedded as an equality filter.
func (b *Builder) KPIQuery(start, end, bu string) string {
	upper := strings.ToUpper(bu)
	buCondition := ""
	if upper != "ALL" {
		buCondition = fmt.Sprintf("AND business_unit = '%s'", upper)
	}

	return fmt.Sprintf(`
    WITH
    date_range AS (
      SELECT
        DATE('%s') as start_date,
        DATE('%s') as end_date
    ),

    %s,

    daily_kpi AS (
      SELECT
        r.first_determine_date,
        CASE
          WHEN '%s' = 'ALL' THEN 'ALL'
          ELSE r.business_unit
        END as business_unit,
        SUM(CAST(r.acceptance_flag AS INT64)) as daily_count,
        COUNT(*) as total_applications
      FROM %s r
        LEFT JOIN reentry_exclusions excl
          USING(first_determine_date, jobseeker_id, jobseeker_branch_id)
        CROSS JOIN date_range dr
      WHERE r.first_determine_date >= dr.start_date
        AND r.first_determine_date <= dr.end_date
        AND r.first_determine_date IS NOT NULL
        AND excl.exclude_flg IS NULL
        %s
      GROUP BY r.first_determine_date, business_unit
    )

    SELECT
      business_unit,
      first_determine_date,
      daily_count,
      total_applications,
      SUM(daily_count) OVER (
        PARTITION BY business_unit
        ORDER BY first_determine_date
        ROWS UNBOUNDED PRECEDING
      ) as cumulative_count

    FROM daily_kpi
    ORDER BY business_unit, first_determine_date
  `, start, end, b.reentryExclusionCTE(), upper, b.table("datamart.t_rag_jobseeker_all"), buCondition)
}

// ChartQuery builds the integrated chart query: current-month daily values
// with per-year running cumulative, plus trailing-three-month weekly totals,
// in one statement discriminated by data_type. One statement means one
// estimate/execute cycle instead of two.
//
// Weeks start Monday. Sundays are excluded from weekly totals: Sunday
// acceptances are processed the next business day.
func (b *Builder) ChartQuery() string {
	return fmt.Sprintf(`
    WITH
    date_ranges AS (
      SELECT
        DATE(EXTRACT(YEAR FROM CURRENT_DATE()) - 1, EXTRACT(MONTH FROM CURRENT_DATE()), 1) as daily_start_prev,
        LAST_DAY(DATE(EXTRACT(YEAR FROM CURRENT_DATE()) - 1, EXTRACT(MONTH FROM CURRENT_DATE()), 1)) as daily_end_prev,
        DATE_TRUNC(CURRENT_DATE(), MONTH) as daily_start_curr,
        LAST_DAY(CURRENT_DATE()) as daily_end_curr,
        DATE_TRUNC(DATE_SUB(DATE(EXTRACT(YEAR FROM CURRENT_DATE()) - 1, EXTRACT(MONTH FROM CURRENT_DATE()), 1), INTERVAL 2 MONTH), WEEK(MONDAY)) as weekly_start_prev,
        DATE_ADD(LAST_DAY(DATE(EXTRACT(YEAR FROM CURRENT_DATE()) - 1, EXTRACT(MONTH FROM CURRENT_DATE()), 1)), INTERVAL 1 DAY) as weekly_end_prev,
        DATE_TRUNC(DATE_SUB(DATE_TRUNC(CURRENT_DATE(), MONTH), INTERVAL 2 MONTH), WEEK(MONDAY)) as weekly_start_curr,
        LEAST(LAST_DAY(CURRENT_DATE()), CURRENT_DATE()) as weekly_end_curr
    ),

    %s,

    clean_data AS (
      SELECT
        r.first_determine_date,
        r.jobseeker_id,
        r.jobseeker_branch_id,
        r.acceptance_flag
      FROM %s AS r
        LEFT JOIN reentry_exclusions AS excl
          USING(first_determine_date, jobseeker_id, jobseeker_branch_id)
      WHERE r.first_determine_date IS NOT NULL
        AND excl.exclude_flg IS NULL
    ),

    daily_data AS (
      SELECT
        first_determine_date,
        SUM(CAST(acceptance_flag AS INT64)) as daily_count,
        EXTRACT(YEAR FROM first_determine_date) as year,
        EXTRACT(MONTH FROM first_determine_date) as month,
        EXTRACT(DAY FROM first_determine_date) as day
      FROM clean_data, date_ranges
      WHERE (
        (first_determine_date >= daily_start_prev AND first_determine_date <= daily_end_prev) OR
        (first_determine_date >= daily_start_curr AND first_determine_date <= daily_end_curr)
      )
      GROUP BY first_determine_date, year, month, day
    ),

    cumulative_data AS (
      SELECT
        first_determine_date,
        daily_count,
        year,
        month,
        day,
        SUM(daily_count) OVER (
          PARTITION BY year
          ORDER BY first_determine_date
          ROWS UNBOUNDED PRECEDING
        ) as cumulative_count
      FROM daily_data
    ),

    weekly_data AS (
      SELECT
        DATE_TRUNC(first_determine_date, WEEK(MONDAY)) as week_start,
        EXTRACT(YEAR FROM first_determine_date) as year,
        EXTRACT(WEEK FROM first_determine_date) as week_number,
        SUM(CAST(acceptance_flag AS INT64)) as weekly_count
      FROM clean_data, date_ranges
      WHERE (
        (first_determine_date >= weekly_start_prev AND first_determine_date <= weekly_end_prev) OR
        (first_determine_date >= weekly_start_curr AND first_determine_date <= weekly_end_curr)
      )
        AND EXTRACT(DAYOFWEEK FROM first_determine_date) != 1
      GROUP BY week_start, year, week_number
    )

    SELECT
      'daily' as data_type,
      year,
      month,
      day,
      NULL as week_start,
      NULL as week_number,
      first_determine_date,
      daily_count,
      cumulative_count
    FROM cumulative_data

    UNION ALL

    SELECT
      'weekly' as data_type,
      year,
      NULL as month,
      NULL as day,
      week_start,
      week_number,
      week_start as first_determine_date,
      weekly_count as daily_count,
      NULL as cumulative_count
    FROM weekly_data

    ORDER BY data_type, first_determine_date
  `, b.reentryExclusionCTE(), b.table("datamart.t_rag_jobseeker_all"))
}

// latestDateSubquery resolves the most recent data date within the current
// month. Reused by the table-metrics queries so "latest" means the same day
// everywhere.
func (b *Builder) latestDateSubquery(table, dateExpr string) string {
	return fmt.Sprintf(`(SELECT MAX(%s) FROM %s
         WHERE %s >= DATE_TRUNC(CURRENT_DATE(), MONTH) AND %s <= CURRENT_DATE())`,
		dateExpr, b.table(table), dateExpr, dateExpr)
}

// SoukeKPIQuery builds the intake table-metrics query: latest day versus
// prev-day / prev-week-same-day / prev-year-same-day, with growth rates.
func (b *Builder) SoukeKPIQuery() string {
	latest := b.latestDateSubquery("datamart.t_rag_jobseeker_all", "first_determine_date")
	return fmt.Sprintf(`
    WITH
    date_analysis AS (
      SELECT
        %s as latest_date,
        DATE_SUB(%s, INTERVAL 1 DAY) as prev_day,
        DATE_SUB(%s, INTERVAL 7 DAY) as prev_week_day,
        DATE_SUB(%s, INTERVAL 1 YEAR) as prev_year_day
    ),

    %s,

    daily_counts AS (
      SELECT
        r.first_determine_date,
        SUM(CAST(r.acceptance_flag AS INT64)) as daily_count
      FROM %s r
        LEFT JOIN reentry_exclusions excl
          USING(first_determine_date, jobseeker_id, jobseeker_branch_id)
      WHERE r.first_determine_date >= DATE_SUB(CURRENT_DATE(), INTERVAL 400 DAY)
        AND r.first_determine_date IS NOT NULL
        AND excl.exclude_flg IS NULL
      GROUP BY r.first_determine_date
    )

    SELECT
      d.latest_date,
      COALESCE(latest.daily_count, 0) as latest_count,
      COALESCE(prev_day.daily_count, 0) as prev_day_count,
      COALESCE(prev_week.daily_count, 0) as prev_week_count,
      COALESCE(prev_year.daily_count, 0) as prev_year_count,

      CASE
        WHEN COALESCE(prev_day.daily_count, 0) > 0 THEN
          ROUND(((COALESCE(latest.daily_count, 0) - COALESCE(prev_day.daily_count, 0)) * 100.0) / COALESCE(prev_day.daily_count, 0), 1)
        ELSE NULL
      END as day_growth_rate,

      CASE
        WHEN COALESCE(prev_week.daily_count, 0) > 0 THEN
          ROUND(((COALESCE(latest.daily_count, 0) - COALESCE(prev_week.daily_count, 0)) * 100.0) / COALESCE(prev_week.daily_count, 0), 1)
        ELSE NULL
      END as week_growth_rate,

      CASE
        WHEN COALESCE(prev_year.daily_count, 0) > 0 THEN
          ROUND(((COALESCE(latest.daily_count, 0) - COALESCE(prev_year.daily_count, 0)) * 100.0) / COALESCE(prev_year.daily_count, 0), 1)
        ELSE NULL
      END as year_growth_rate

    FROM date_analysis d
    LEFT JOIN daily_counts latest ON d.latest_date = latest.first_determine_date
    LEFT JOIN daily_counts prev_day ON d.prev_day = prev_day.first_determine_date
    LEFT JOIN daily_counts prev_week ON d.prev_week_day = prev_week.first_determine_date
    LEFT JOIN daily_counts prev_year ON d.prev_year_day = prev_year.first_determine_date
  `, latest, latest, latest, latest, b.reentryExclusionCTE(), b.table("datamart.t_rag_jobseeker_all"))
}

// channelQuery is the shared shape of the channel-breakdown queries. The
// overview uses the simple category with a growth floor of 10; the detail
// uses the middle category with a floor of 5.
func (b *Builder) channelQuery(dataType, categoryCol string, growthFloor int) string {
	latest := b.latestDateSubquery("datamart.t_rag_jobseeker_all", "first_determine_date")
	return fmt.Sprintf(`
    WITH
    date_analysis AS (
      SELECT
        %s as latest_date,
        DATE_SUB(%s, INTERVAL 1 DAY) as prev_day,
        DATE_SUB(%s, INTERVAL 7 DAY) as prev_week_day,
        DATE_SUB(%s, INTERVAL 1 YEAR) as prev_year_day
    ),

    %s,

    clean_data AS (
      SELECT
        r.first_determine_date,
        r.acceptance_flag,
        r.%s as channel_category
      FROM %s AS r
        LEFT JOIN reentry_exclusions AS excl
          USING(first_determine_date, jobseeker_id, jobseeker_branch_id)
      WHERE r.first_determine_date IS NOT NULL
        AND excl.exclude_flg IS NULL
    ),

    channel_metrics AS (
      SELECT
        channel_category,
        SUM(CASE WHEN first_determine_date = d.latest_date THEN CAST(acceptance_flag AS INT64) END) as latest_count,
        SUM(CASE WHEN first_determine_date = d.prev_day THEN CAST(acceptance_flag AS INT64) END) as prev_day_count,
        SUM(CASE WHEN first_determine_date = d.prev_week_day THEN CAST(acceptance_flag AS INT64) END) as prev_week_count,
        SUM(CASE WHEN first_determine_date = d.prev_year_day THEN CAST(acceptance_flag AS INT64) END) as prev_year_count
      FROM clean_data
      CROSS JOIN date_analysis d
      WHERE first_determine_date IN (d.latest_date, d.prev_day, d.prev_week_day, d.prev_year_day)
      GROUP BY channel_category
    ),

    total_metrics AS (
      SELECT SUM(latest_count) as total_latest FROM channel_metrics
    )

    SELECT
      '%s' as data_type,
      c.channel_category,
      COALESCE(c.latest_count, 0) as latest_count,
      COALESCE(c.prev_day_count, 0) as prev_day_count,
      COALESCE(c.prev_week_count, 0) as prev_week_count,
      COALESCE(c.prev_year_count, 0) as prev_year_count,

      CASE
        WHEN t.total_latest > 0 THEN
          ROUND(COALESCE(c.latest_count, 0) * 100.0 / t.total_latest, 1)
        ELSE 0
      END as share_pct,

      CASE
        WHEN COALESCE(c.prev_day_count, 0) >= %d THEN
          ROUND(((COALESCE(c.latest_count, 0) - COALESCE(c.prev_day_count, 0)) * 100.0) / COALESCE(c.prev_day_count, 0), 1)
        ELSE NULL
      END as day_growth_rate,

      CASE
        WHEN COALESCE(c.prev_week_count, 0) >= %d THEN
          ROUND(((COALESCE(c.latest_count, 0) - COALESCE(c.prev_week_count, 0)) * 100.0) / COALESCE(c.prev_week_count, 0), 1)
        ELSE NULL
      END as week_growth_rate,

      CASE
        WHEN COALESCE(c.prev_year_count, 0) >= %d THEN
          ROUND(((COALESCE(c.latest_count, 0) - COALESCE(c.prev_year_count, 0)) * 100.0) / COALESCE(c.prev_year_count, 0), 1)
        ELSE NULL
      END as year_growth_rate

    FROM channel_metrics c
    CROSS JOIN total_metrics t
    WHERE COALESCE(c.latest_count, 0) > 0
    ORDER BY c.latest_count DESC
  `, latest, latest, latest, latest, b.reentryExclusionCTE(), categoryCol,
		b.table("datamart.t_rag_jobseeker_all"), dataType, growthFloor, growthFloor, growthFloor)
}

// ChannelOverviewQuery builds the coarse channel breakdown. Growth rates
// with a comparison denominator below 10 are suppressed to NULL.
func (b *Builder) ChannelOverviewQuery() string {
	return b.channelQuery("channel_overview", "channel_simple_category", 10)
}

// ChannelDetailQuery builds the fine-grained channel breakdown with a
// growth-suppression floor of 5.
func (b *Builder) ChannelDetailQuery() string {
	return b.channelQuery("channel_detail", "channel_middle_category", 5)
}

// OfferDailyQuery builds the daily offer-count series for the current month
// against the same month last year. Future dates within the month come back
// with a NULL current value so the chart renders a gap, not a zero.
func (b *Builder) OfferDailyQuery() string {
	return fmt.Sprintf(`
    WITH
    daily_offers AS (
      SELECT
        DATE(prospective_date) AS offer_date,
        EXTRACT(YEAR FROM DATE(prospective_date)) AS year,
        SUM(prospective_f) AS daily_offer_count
      FROM %s
      WHERE
        prospective_f = 1
        AND (
          ( DATE(prospective_date) >= DATE_TRUNC(CURRENT_DATE(), MONTH)
            AND DATE(prospective_date) <= CURRENT_DATE() )
          OR
          ( DATE(prospective_date) >= DATE(EXTRACT(YEAR FROM CURRENT_DATE()) - 1, EXTRACT(MONTH FROM CURRENT_DATE()), 1)
            AND DATE(prospective_date) <= LAST_DAY(DATE(EXTRACT(YEAR FROM CURRENT_DATE()) - 1, EXTRACT(MONTH FROM CURRENT_DATE()), 1)) )
        )
      GROUP BY offer_date, year
    ),

    calendar AS (
      SELECT
        date_val as offer_date,
        DATE_SUB(date_val, INTERVAL 1 YEAR) as prev_year_date
      FROM
        UNNEST(GENERATE_DATE_ARRAY(
          DATE_TRUNC(CURRENT_DATE(), MONTH),
          LAST_DAY(CURRENT_DATE())
        )) AS date_val
    )

    SELECT
      c.offer_date,
      CASE
        WHEN c.offer_date <= CURRENT_DATE() THEN COALESCE(curr.daily_offer_count, 0)
        ELSE NULL
      END AS offer_count_current,
      COALESCE(prev.daily_offer_count, 0) AS offer_count_last_year
    FROM calendar c
    LEFT JOIN daily_offers curr
      ON curr.offer_date = c.offer_date AND curr.year = EXTRACT(YEAR FROM CURRENT_DATE())
    LEFT JOIN daily_offers prev
      ON prev.offer_date = c.prev_year_date AND prev.year = EXTRACT(YEAR FROM CURRENT_DATE()) - 1
    ORDER BY c.offer_date
  `, b.table("legacy_datamart.v_rag_flow_action_detail_joboffer"))
}

// OfferWeeklyQuery builds the weekly offer-count series over the trailing
// three months, joined to the prior year by ISO week rather than by date
// arithmetic.
func (b *Builder) OfferWeeklyQuery() string {
	return fmt.Sprintf(`
    WITH
    date_ranges AS (
      SELECT
        DATE_TRUNC(DATE_SUB(DATE(EXTRACT(YEAR FROM CURRENT_DATE()) - 1, EXTRACT(MONTH FROM CURRENT_DATE()), 1), INTERVAL 2 MONTH), WEEK(MONDAY)) as weekly_start_prev,
        DATE_ADD(LAST_DAY(DATE(EXTRACT(YEAR FROM CURRENT_DATE()) - 1, EXTRACT(MONTH FROM CURRENT_DATE()), 1)), INTERVAL 1 DAY) as weekly_end_prev,
        DATE_TRUNC(DATE_SUB(DATE_TRUNC(CURRENT_DATE(), MONTH), INTERVAL 2 MONTH), WEEK(MONDAY)) as weekly_start_curr,
        CURRENT_DATE() as weekly_end_curr
    ),

    weekly_offers AS (
      SELECT
        DATE_TRUNC(DATE(prospective_date), WEEK(MONDAY)) AS week_start_date,
        EXTRACT(ISOYEAR FROM DATE(prospective_date)) AS iso_year,
        EXTRACT(ISOWEEK FROM DATE(prospective_date)) AS iso_week,
        SUM(prospective_f) AS offer_count
      FROM %s
      WHERE
        ( DATE(prospective_date) >= (SELECT weekly_start_curr FROM date_ranges)
          AND DATE(prospective_date) <= (SELECT weekly_end_curr FROM date_ranges) )
        OR
        ( DATE(prospective_date) >= (SELECT weekly_start_prev FROM date_ranges)
          AND DATE(prospective_date) <= (SELECT weekly_end_prev FROM date_ranges) )
      GROUP BY week_start_date, iso_year, iso_week
    ),

    current_weeks AS (
      SELECT
        week_start_date,
        iso_year,
        iso_week,
        offer_count AS offer_count_current
      FROM weekly_offers
      WHERE week_start_date >= (SELECT weekly_start_curr FROM date_ranges)
        AND week_start_date <= (SELECT weekly_end_curr FROM date_ranges)
    )

    SELECT
      cw.week_start_date AS week_start_date,
      cw.offer_count_current AS offer_count_current,
      COALESCE(py.offer_count, 0) AS offer_count_last_year
    FROM current_weeks AS cw
    LEFT JOIN weekly_offers AS py
      ON py.iso_year = cw.iso_year - 1
      AND py.iso_week = cw.iso_week
    ORDER BY cw.week_start_date
  `, b.table("legacy_datamart.v_rag_flow_action_detail_joboffer"))
}

// OfferCumulativeQuery builds the month-to-date running offer totals for the
// current and prior year. Cumulative values are computed over a generated
// calendar so gaps between data days do not break the running sum.
func (b *Builder) OfferCumulativeQuery() string {
	return fmt.Sprintf(`
    WITH
    daily_offers AS (
      SELECT
        DATE(prospective_date) AS offer_date,
        EXTRACT(YEAR FROM DATE(prospective_date)) AS year,
        SUM(prospective_f) AS daily_offer_count
      FROM %s
      WHERE
        prospective_f = 1
        AND (
          ( DATE(prospective_date) >= DATE_TRUNC(CURRENT_DATE(), MONTH)
            AND DATE(prospective_date) <= CURRENT_DATE() )
          OR
          ( DATE(prospective_date) >= DATE(EXTRACT(YEAR FROM CURRENT_DATE()) - 1, EXTRACT(MONTH FROM CURRENT_DATE()), 1)
            AND DATE(prospective_date) <= LAST_DAY(DATE(EXTRACT(YEAR FROM CURRENT_DATE()) - 1, EXTRACT(MONTH FROM CURRENT_DATE()), 1)) )
        )
      GROUP BY offer_date, year
    ),

    calendar_both_years AS (
      SELECT
        date_val as offer_date,
        EXTRACT(YEAR FROM date_val) as year,
        DATE_SUB(date_val, INTERVAL 1 YEAR) as prev_year_date
      FROM
        UNNEST(GENERATE_DATE_ARRAY(
          DATE_TRUNC(CURRENT_DATE(), MONTH),
          LAST_DAY(CURRENT_DATE())
        )) AS date_val
      UNION ALL
      SELECT
        DATE_ADD(date_val, INTERVAL 1 YEAR) as offer_date,
        EXTRACT(YEAR FROM DATE_ADD(date_val, INTERVAL 1 YEAR)) as year,
        date_val as prev_year_date
      FROM
        UNNEST(GENERATE_DATE_ARRAY(
          DATE(EXTRACT(YEAR FROM CURRENT_DATE()) - 1, EXTRACT(MONTH FROM CURRENT_DATE()), 1),
          LAST_DAY(DATE(EXTRACT(YEAR FROM CURRENT_DATE()) - 1, EXTRACT(MONTH FROM CURRENT_DATE()), 1))
        )) AS date_val
    ),

    daily_with_calendar AS (
      SELECT
        c.offer_date,
        c.year,
        COALESCE(d.daily_offer_count, 0) as daily_offer_count
      FROM calendar_both_years c
      LEFT JOIN daily_offers d
        ON c.offer_date = d.offer_date AND c.year = d.year
    ),

    cumulative_offers AS (
      SELECT
        offer_date,
        year,
        daily_offer_count,
        SUM(daily_offer_count) OVER (
          PARTITION BY year
          ORDER BY offer_date
          ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW
        ) AS cumulative_count
      FROM daily_with_calendar
    ),

    calendar AS (
      SELECT
        date_val as offer_date,
        DATE_SUB(date_val, INTERVAL 1 YEAR) as prev_year_date
      FROM
        UNNEST(GENERATE_DATE_ARRAY(
          DATE_TRUNC(CURRENT_DATE(), MONTH),
          LAST_DAY(CURRENT_DATE())
        )) AS date_val
    )

    SELECT
      c.offer_date,
      CASE
        WHEN c.offer_date <= CURRENT_DATE() THEN curr.cumulative_count
        ELSE NULL
      END AS offer_count_current,
      prev.cumulative_count AS offer_count_last_year
    FROM calendar c
    LEFT JOIN cumulative_offers curr
      ON curr.offer_date = c.offer_date AND curr.year = EXTRACT(YEAR FROM CURRENT_DATE())
    LEFT JOIN cumulative_offers prev
      ON prev.offer_date = c.prev_year_date AND prev.year = EXTRACT(YEAR FROM CURRENT_DATE()) - 1
    ORDER BY c.offer_date
  `, b.table("legacy_datamart.v_rag_flow_action_detail_joboffer"))
}

// OfferKPIQuery builds the offer-count table metrics, same shape as
// SoukeKPIQuery but sourced from the job-offer view.
func (b *Builder) OfferKPIQuery() string {
	latest := b.latestDateSubquery("legacy_datamart.v_rag_flow_action_detail_joboffer", "DATE(prospective_date)")
	return fmt.Sprintf(`
    WITH
    date_analysis AS (
      SELECT
        %s as latest_date,
        DATE_SUB(%s, INTERVAL 1 DAY) as prev_day,
        DATE_SUB(%s, INTERVAL 7 DAY) as prev_week_day,
        DATE_SUB(%s, INTERVAL 1 YEAR) as prev_year_day
    ),

    daily_offers AS (
      SELECT
        DATE(prospective_date) as offer_date,
        SUM(prospective_f) as daily_offer_count
      FROM %s
      WHERE DATE(prospective_date) >= DATE_SUB(CURRENT_DATE(), INTERVAL 400 DAY)
        AND prospective_date IS NOT NULL
      GROUP BY DATE(prospective_date)
    )

    SELECT
      d.latest_date,
      COALESCE(latest.daily_offer_count, 0) as latest_count,
      COALESCE(prev_day.daily_offer_count, 0) as prev_day_count,
      COALESCE(prev_week.daily_offer_count, 0) as prev_week_count,
      COALESCE(prev_year.daily_offer_count, 0) as prev_year_count,

      CASE
        WHEN COALESCE(prev_day.daily_offer_count, 0) > 0 THEN
          ROUND(((COALESCE(latest.daily_offer_count, 0) - COALESCE(prev_day.daily_offer_count, 0)) * 100.0) / COALESCE(prev_day.daily_offer_count, 0), 1)
        ELSE NULL
      END as day_growth_rate,

      CASE
        WHEN COALESCE(prev_week.daily_offer_count, 0) > 0 THEN
          ROUND(((COALESCE(latest.daily_offer_count, 0) - COALESCE(prev_week.daily_offer_count, 0)) * 100.0) / COALESCE(prev_week.daily_offer_count, 0), 1)
        ELSE NULL
      END as week_growth_rate,

      CASE
        WHEN COALESCE(prev_year.daily_offer_count, 0) > 0 THEN
          ROUND(((COALESCE(latest.daily_offer_count, 0) - COALESCE(prev_year.daily_offer_count, 0)) * 100.0) / COALESCE(prev_year.daily_offer_count, 0), 1)
        ELSE NULL
      END as year_growth_rate

    FROM date_analysis d
    LEFT JOIN daily_offers latest ON d.latest_date = latest.offer_date
    LEFT JOIN daily_offers prev_day ON d.prev_day = prev_day.offer_date
    LEFT JOIN daily_offers prev_week ON d.prev_week_day = prev_week.offer_date
    LEFT JOIN daily_offers prev_year ON d.prev_year_day = prev_year.offer_date
  `, latest, latest, latest, latest, b.table("legacy_datamart.v_rag_flow_action_detail_joboffer"))
}

// HealthCheckQuery builds the cheap warehouse health probe.
func (b *Builder) HealthCheckQuery() string {
	return fmt.Sprintf(`
    SELECT
      COUNT(*) as total_records,
      MIN(first_determine_date) as earliest_date,
      MAX(first_determine_date) as latest_date,
      COUNT(DISTINCT first_determine_date) as unique_dates
    FROM %s
    WHERE first_determine_date >= DATE_TRUNC(CURRENT_DATE(), MONTH)
  `, b.table("datamart.t_rag_jobseeker_all"))
}

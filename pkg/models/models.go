// Package models provides the shared wire-contract types for the briefdash public API.
// The chart layer depends on these exact JSON shapes; change them only together with
// the front end.
package models

import (
	"time"
)

// ChartDataPoint is a single plotted value.
//
// Y is a pointer on purpose: a nil Y serializes as JSON null and renders as a
// visual gap in the chart, while a zero Y renders as an actual zero data point.
// The two must never be collapsed into each other.
type ChartDataPoint struct {
	X         string   `json:"x"`
	Y         *float64 `json:"y"`
	Label     string   `json:"label"`
	DateValue string   `json:"date_value"`
}

// SeriesByYear maps a calendar-year string ("2024", "2025", ...) to an ordered
// sequence of data points, ascending by DateValue.
type SeriesByYear map[string][]ChartDataPoint

// BundleMetadata describes where a bundle came from and how complete it is.
type BundleMetadata struct {
	LastUpdated time.Time `json:"lastUpdated"`
	DataSource  string    `json:"dataSource"`
	RecordCount int       `json:"recordCount"`

	// Degraded marks a bundle produced from a partially failed refresh.
	// Consumers must be able to tell degraded output apart from real data.
	Degraded       bool   `json:"degraded,omitempty"`
	DegradedReason string `json:"degradedReason,omitempty"`
}

// Bundle is the reshaped time-series payload for one metric family:
// daily values, per-year running cumulative sums and weekly totals.
//
// Invariant: within a year, Daily and Cumulative hold the same number of
// points (one point in, one point out).
type Bundle struct {
	Daily      SeriesByYear   `json:"daily"`
	Cumulative SeriesByYear   `json:"cumulative"`
	Weekly     SeriesByYear   `json:"weekly"`
	Metadata   BundleMetadata `json:"metadata"`
}

// TableMetrics is one row of the flat KPI table: the latest value with
// day/week/year comparisons. Growth rates are nil when the warehouse
// suppressed them (comparison denominator below the display floor).
type TableMetrics struct {
	LatestDate string   `json:"latest_date"`
	Latest     float64  `json:"latest"`
	PrevDay    float64  `json:"prev_day"`
	PrevWeek   float64  `json:"prev_week"`
	PrevYear   float64  `json:"prev_year"`
	DayGrowth  *float64 `json:"day_growth_rate"`
	WeekGrowth *float64 `json:"week_growth_rate"`
	YearGrowth *float64 `json:"year_growth_rate"`
}

// ChannelMetric is one row of the channel-breakdown table.
type ChannelMetric struct {
	Category       string   `json:"channel_category"`
	ParentCategory string   `json:"parent_category,omitempty"`
	Latest         float64  `json:"latest_count"`
	PrevDay        float64  `json:"prev_day_count"`
	PrevWeek       float64  `json:"prev_week_count"`
	PrevYear       float64  `json:"prev_year_count"`
	SharePct       float64  `json:"share_pct"`
	DayGrowth      *float64 `json:"day_growth_rate"`
	WeekGrowth     *float64 `json:"week_growth_rate"`
	YearGrowth     *float64 `json:"year_growth_rate"`
}

// KPIMetadata is the execution metadata attached to a successful ad-hoc
// KPI query response.
type KPIMetadata struct {
	QueryDurationMs int64   `json:"query_duration_ms"`
	RowsCount       int     `json:"rows_count"`
	JobID           string  `json:"job_id"`
	BytesProcessed  int64   `json:"bytes_processed"`
	EstimatedGB     float64 `json:"estimated_gb"`
}

// KPIResponse is the 200 response of POST /run-kpi.
type KPIResponse struct {
	Success  bool                     `json:"success"`
	Data     []map[string]interface{} `json:"data"`
	Metadata KPIMetadata              `json:"metadata"`
}

// ValidationErrorResponse is the 400 response for rejected parameters.
type ValidationErrorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

// CostExceededResponse is the 413 response for a cost-ceiling breach.
// It carries the estimate so the user can see how far over they were.
type CostExceededResponse struct {
	Success     bool    `json:"success"`
	Error       string  `json:"error"`
	EstimatedGB float64 `json:"estimated_gb"`
	LimitGB     float64 `json:"limit_gb"`
}

// ErrorResponse is the generic failure envelope. Message stays generic by
// policy: no SQL and no stack traces leave the server.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// TableDataResponse is the GET /table-data payload: the flat KPI tables
// and channel breakdowns fetched in one parallel pass.
type TableDataResponse struct {
	Success bool          `json:"success"`
	Data    TableDataBody `json:"data"`
}

// TableDataBody groups the independent table metrics.
type TableDataBody struct {
	KPI             *TableMetrics   `json:"kpi"`
	OfferKPI        *TableMetrics   `json:"offer_kpi"`
	ChannelOverview []ChannelMetric `json:"channels_overview"`
	ChannelDetail   []ChannelMetric `json:"channels_detail"`
	Metadata        TableDataMeta   `json:"metadata"`
}

// TableDataMeta records when and how the table data was fetched.
type TableDataMeta struct {
	FetchedAt  string `json:"fetched_at"`
	DurationMs int64  `json:"duration_ms"`
}

// RefreshResponse is the POST /refresh summary.
type RefreshResponse struct {
	Success  bool           `json:"success"`
	Families []FamilyResult `json:"families"`
	Message  string         `json:"message,omitempty"`
}

// FamilyResult reports the outcome of refreshing one metric family.
type FamilyResult struct {
	Family    string `json:"family"`
	Persisted bool   `json:"persisted"`
	Degraded  bool   `json:"degraded"`
	Error     string `json:"error,omitempty"`
}

// Float is a convenience for building optional numeric fields.
func Float(v float64) *float64 { return &v }

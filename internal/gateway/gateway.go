// Package gateway exposes the HTTP surface: the ad-hoc KPI endpoint behind
// the cost guard, the snapshot refresh trigger, the table-metrics fetch and
// the health probe.
package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/briefdash-labs/briefdash/internal/auth"
	"github.com/briefdash-labs/briefdash/internal/errors"
	"github.com/briefdash-labs/briefdash/internal/kpi"
	"github.com/briefdash-labs/briefdash/internal/observability"
	"github.com/briefdash-labs/briefdash/internal/refresh"
	"github.com/briefdash-labs/briefdash/internal/series"
	"github.com/briefdash-labs/briefdash/pkg/models"
)

// Config holds the gateway's per-call execution wall clocks.
type Config struct {
	// KPITimeout bounds ad-hoc KPI executions.
	KPITimeout time.Duration

	// TableTimeout bounds the lighter table-metrics executions.
	TableTimeout time.Duration
}

// Gateway wires the HTTP handlers to the query path.
type Gateway struct {
	guard         *kpi.Guard
	builder       *kpi.Builder
	refresher     *refresh.Refresher
	authenticator auth.Authenticator
	normalizer    *series.Normalizer
	audit         observability.QueryLogger
	log           zerolog.Logger
	config        Config
	mux           *http.ServeMux
}

// New creates a Gateway and registers its routes.
func New(
	guard *kpi.Guard,
	builder *kpi.Builder,
	refresher *refresh.Refresher,
	authenticator auth.Authenticator,
	audit observability.QueryLogger,
	log zerolog.Logger,
	config Config,
) *Gateway {
	if config.KPITimeout == 0 {
		config.KPITimeout = 60 * time.Second
	}
	if config.TableTimeout == 0 {
		config.TableTimeout = 30 * time.Second
	}

	g := &Gateway{
		guard:         guard,
		builder:       builder,
		refresher:     refresher,
		authenticator: authenticator,
		normalizer:    series.NewNormalizer(log),
		audit:         audit,
		log:           log,
		config:        config,
		mux:           http.NewServeMux(),
	}

	g.mux.HandleFunc("/run-kpi", g.handleRunKPI)
	g.mux.HandleFunc("/refresh", g.handleRefresh)
	g.mux.HandleFunc("/table-data", g.handleTableData)
	g.mux.HandleFunc("/health", g.handleHealth)
	return g
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mux.ServeHTTP(w, r)
}

type runKPIRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
	BU    string `json:"bu"`
}

func (g *Gateway) handleRunKPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{
			Success: false,
			Error:   "Method not allowed",
		})
		return
	}

	claims, ok := g.authenticate(w, r)
	if !ok {
		return
	}

	var req runKPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ValidationErrorResponse{
			Success: false,
			Error:   "Parameter validation failed",
			Details: []string{"request body must be valid JSON"},
		})
		return
	}

	if validationErrors := kpi.ValidateParams(req.Start, req.End, req.BU); len(validationErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.ValidationErrorResponse{
			Success: false,
			Error:   "Parameter validation failed",
			Details: validationErrors,
		})
		return
	}

	sql := g.builder.KPIQuery(req.Start, req.End, req.BU)

	queryID := uuid.NewString()
	start := time.Now()
	result, err := g.guard.Run(r.Context(), sql, g.config.KPITimeout, claims.Subject)

	entry := observability.QueryLogEntry{
		QueryID:  queryID,
		User:     claims.Subject,
		Family:   "adhoc",
		Duration: time.Since(start),
	}

	if err != nil {
		if costErr, isCost := errors.AsCostExceeded(err); isCost {
			// Expected user-facing condition: audited as a rejection,
			// never logged as an application error.
			entry.Outcome = "rejected"
			entry.EstimatedGB = costErr.EstimatedGB
			g.logAudit(r, entry)

			writeJSON(w, http.StatusRequestEntityTooLarge, models.CostExceededResponse{
				Success:     false,
				Error:       costErr.Message,
				EstimatedGB: costErr.EstimatedGB,
				LimitGB:     costErr.LimitGB,
			})
			return
		}

		entry.Outcome = "error"
		entry.Error = err.Error()
		g.logAudit(r, entry)
		g.log.Error().Err(err).Str("query_id", queryID).Msg("kpi query failed")

		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   "Query execution failed",
			Message: "the query could not be completed",
		})
		return
	}

	entry.Outcome = "success"
	entry.JobID = result.JobID
	entry.EstimatedGB = result.EstimatedGB
	entry.BytesProcessed = result.BytesProcessed
	g.logAudit(r, entry)

	writeJSON(w, http.StatusOK, models.KPIResponse{
		Success: true,
		Data:    g.normalizer.Rows(result.Rows),
		Metadata: models.KPIMetadata{
			QueryDurationMs: result.Duration.Milliseconds(),
			RowsCount:       len(result.Rows),
			JobID:           result.JobID,
			BytesProcessed:  result.BytesProcessed,
			EstimatedGB:     result.EstimatedGB,
		},
	})
}

func (g *Gateway) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{
			Success: false,
			Error:   "Method not allowed",
		})
		return
	}

	claims, ok := g.authenticate(w, r)
	if !ok {
		return
	}

	results := g.refresher.RefreshAll(r.Context(), claims.Subject)

	success := true
	for _, res := range results {
		if !res.Persisted {
			success = false
		}
	}

	status := http.StatusOK
	message := ""
	if !success {
		status = http.StatusInternalServerError
		message = "one or more metric families failed to refresh"
	}
	writeJSON(w, status, models.RefreshResponse{
		Success:  success,
		Families: results,
		Message:  message,
	})
}

func (g *Gateway) handleTableData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{
			Success: false,
			Error:   "Method not allowed",
		})
		return
	}

	claims, ok := g.authenticate(w, r)
	if !ok {
		return
	}

	start := time.Now()
	body := models.TableDataBody{}

	// Four independent read-only queries, fanned out and fanned back in.
	var eg errgroup.Group
	eg.Go(func() error {
		rows, err := g.runTableQuery(r, claims.Subject, "souke-kpi", g.builder.SoukeKPIQuery())
		if err == nil && len(rows) > 0 {
			body.KPI = tableMetricsFromRow(rows[0])
		}
		return err
	})
	eg.Go(func() error {
		rows, err := g.runTableQuery(r, claims.Subject, "naitei-kpi", g.builder.OfferKPIQuery())
		if err == nil && len(rows) > 0 {
			body.OfferKPI = tableMetricsFromRow(rows[0])
		}
		return err
	})
	eg.Go(func() error {
		rows, err := g.runTableQuery(r, claims.Subject, "channels-overview", g.builder.ChannelOverviewQuery())
		if err == nil {
			body.ChannelOverview = channelMetricsFromRows(rows)
		}
		return err
	})
	eg.Go(func() error {
		rows, err := g.runTableQuery(r, claims.Subject, "channels-detail", g.builder.ChannelDetailQuery())
		if err == nil {
			body.ChannelDetail = channelMetricsFromRows(rows)
		}
		return err
	})

	if err := eg.Wait(); err != nil {
		g.log.Error().Err(err).Msg("table data fetch failed")
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   "Table data fetch failed",
			Message: "one or more table queries could not be completed",
		})
		return
	}

	body.Metadata = models.TableDataMeta{
		FetchedAt:  time.Now().UTC().Format(time.RFC3339),
		DurationMs: time.Since(start).Milliseconds(),
	}
	writeJSON(w, http.StatusOK, models.TableDataResponse{Success: true, Data: body})
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   "briefdash-gateway",
	})
}

// authenticate verifies the bearer credential. The 401 body is identical for
// every failure mode so callers cannot probe which check rejected them.
func (g *Gateway) authenticate(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		g.unauthorized(w)
		return nil, false
	}

	claims, err := g.authenticator.VerifyToken(r.Context(), strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		if authErr, ok := errors.AsAuthFailed(err); ok {
			g.log.Warn().Str("reason", authErr.Reason).Msg("authentication rejected")
		}
		g.unauthorized(w)
		return nil, false
	}
	return claims, true
}

func (g *Gateway) unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{
		Success: false,
		Error:   "Unauthorized",
	})
}

func (g *Gateway) runTableQuery(r *http.Request, user, family, sql string) ([]map[string]interface{}, error) {
	queryID := uuid.NewString()
	start := time.Now()

	result, err := g.guard.Run(r.Context(), sql, g.config.TableTimeout, user)

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
	g.logAudit(r, entry)

	if err != nil {
		return nil, err
	}
	return g.normalizer.Rows(result.Rows), nil
}

func (g *Gateway) logAudit(r *http.Request, entry observability.QueryLogEntry) {
	if err := g.audit.LogQuery(r.Context(), entry); err != nil {
		g.log.Error().Err(err).Msg("audit log write failed")
	}
}

func tableMetricsFromRow(row map[string]interface{}) *models.TableMetrics {
	m := &models.TableMetrics{}
	m.LatestDate, _ = row["latest_date"].(string)
	m.Latest = numField(row, "latest_count")
	m.PrevDay = numField(row, "prev_day_count")
	m.PrevWeek = numField(row, "prev_week_count")
	m.PrevYear = numField(row, "prev_year_count")
	m.DayGrowth = numFieldPtr(row, "day_growth_rate")
	m.WeekGrowth = numFieldPtr(row, "week_growth_rate")
	m.YearGrowth = numFieldPtr(row, "year_growth_rate")
	return m
}

func channelMetricsFromRows(rows []map[string]interface{}) []models.ChannelMetric {
	metrics := make([]models.ChannelMetric, 0, len(rows))
	for _, row := range rows {
		m := models.ChannelMetric{}
		m.Category, _ = row["channel_category"].(string)
		m.Latest = numField(row, "latest_count")
		m.PrevDay = numField(row, "prev_day_count")
		m.PrevWeek = numField(row, "prev_week_count")
		m.PrevYear = numField(row, "prev_year_count")
		m.SharePct = numField(row, "share_pct")
		m.DayGrowth = numFieldPtr(row, "day_growth_rate")
		m.WeekGrowth = numFieldPtr(row, "week_growth_rate")
		m.YearGrowth = numFieldPtr(row, "year_growth_rate")
		metrics = append(metrics, m)
	}
	return metrics
}

func numField(row map[string]interface{}, key string) float64 {
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

func numFieldPtr(row map[string]interface{}, key string) *float64 {
	switch v := row[key].(type) {
	case float64:
		return &v
	case int64:
		f := float64(v)
		return &f
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// QueryLogEntry contains the required fields for auditing one warehouse query.
// Estimates and rejections are logged the same as executions so the audit
// trail shows every decision the cost guard made.
type QueryLogEntry struct {
	// QueryID is the unique identifier for this query.
	QueryID string

	// User is the authenticated principal that triggered the query.
	User string

	// Family is the metric family the query serves ("chart", "naitei_daily",
	// "channels_overview", ...), or "adhoc" for /run-kpi requests.
	Family string

	// JobID is the warehouse job identifier. Empty for rejected queries,
	// which never produce a job.
	JobID string

	// EstimatedGB is the dry-run estimate in binary gigabytes.
	EstimatedGB float64

	// BytesProcessed is what the execution actually scanned. Zero for
	// rejected or failed queries.
	BytesProcessed int64

	// Duration is the end-to-end time for the estimate + execution.
	// Must be non-negative.
	Duration time.Duration

	// Outcome is "success", "rejected", or "error".
	Outcome string

	// Error contains the failure message if the query did not succeed.
	Error string
}

// Validate checks that all required fields are present.
func (e *QueryLogEntry) Validate() error {
	if e.QueryID == "" {
		return fmt.Errorf("observability: query_id is required")
	}
	if e.User == "" {
		return fmt.Errorf("observability: user is required")
	}
	if e.Outcome == "" {
		return fmt.Errorf("observability: outcome is required")
	}
	if e.Duration < 0 {
		return fmt.Errorf("observability: duration cannot be negative")
	}
	return nil
}

// QueryLogger is the interface for query auditing.
type QueryLogger interface {
	// LogQuery records one query decision. Returns an error if the entry
	// is invalid or cannot be written.
	LogQuery(ctx context.Context, entry QueryLogEntry) error
}

type jsonAuditOutput struct {
	Timestamp      string  `json:"timestamp"`
	Level          string  `json:"level"`
	QueryID        string  `json:"query_id"`
	User           string  `json:"user"`
	Family         string  `json:"family,omitempty"`
	JobID          string  `json:"job_id,omitempty"`
	EstimatedGB    float64 `json:"estimated_gb"`
	BytesProcessed int64   `json:"bytes_processed"`
	DurationMs     int64   `json:"duration_ms"`
	Outcome        string  `json:"outcome"`
	Error          string  `json:"error,omitempty"`
}

// JSONAuditLogger implements QueryLogger with JSON-lines output.
type JSONAuditLogger struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONAuditLogger creates an audit logger writing to the given writer.
func NewJSONAuditLogger(w io.Writer) *JSONAuditLogger {
	return &JSONAuditLogger{writer: w}
}

// LogQuery writes one audit entry as a JSON line.
func (l *JSONAuditLogger) LogQuery(ctx context.Context, entry QueryLogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("observability: context error: %w", err)
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	level := "info"
	if entry.Outcome == "error" {
		level = "error"
	}

	output := jsonAuditOutput{
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Level:          level,
		QueryID:        entry.QueryID,
		User:           entry.User,
		Family:         entry.Family,
		JobID:          entry.JobID,
		EstimatedGB:    entry.EstimatedGB,
		BytesProcessed: entry.BytesProcessed,
		DurationMs:     entry.Duration.Milliseconds(),
		Outcome:        entry.Outcome,
		Error:          entry.Error,
	}

	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("observability: failed to marshal audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("observability: failed to write audit entry: %w", err)
	}
	return nil
}

// NoopLogger discards all audit entries. Useful in tests.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op audit logger.
func NewNoopLogger() *NoopLogger { return &NoopLogger{} }

// LogQuery does nothing and always succeeds.
func (l *NoopLogger) LogQuery(ctx context.Context, entry QueryLogEntry) error { return nil }

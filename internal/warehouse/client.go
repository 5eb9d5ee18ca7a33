// Package warehouse provides the BigQuery client used by the cost guard.
//
// The client is deliberately thin: it knows how to dry-run a statement and how
// to run a statement with a billing cap and a wall-clock timeout. Everything
// about WHETHER a statement may run lives in the kpi package.
package warehouse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Row is one result row keyed by column name.
type Row map[string]bigquery.Value

// RunOptions bounds a real execution.
type RunOptions struct {
	// MaxBytesBilled caps billing on the job. The warehouse kills the job
	// if it would bill beyond this; there is no retry.
	MaxBytesBilled int64

	// Timeout is the wall-clock limit for the whole run, including the
	// result fetch.
	Timeout time.Duration

	// Labels are attached to the warehouse job for cost attribution.
	Labels map[string]string
}

// Result is the outcome of one bounded execution.
type Result struct {
	Rows           []Row
	JobID          string
	BytesProcessed int64
	BytesBilled    int64
	Duration       time.Duration
}

// Runner abstracts the two warehouse operations the guard needs.
// Tests substitute a fake; production uses *Client.
type Runner interface {
	// DryRun validates the statement and returns the number of bytes a
	// real execution would scan. No data is read and nothing is billed.
	DryRun(ctx context.Context, sql string) (int64, error)

	// Run executes the statement within the given bounds and collects
	// all result rows.
	Run(ctx context.Context, sql string, opts RunOptions) (*Result, error)
}

// Config configures the warehouse client.
type Config struct {
	// ProjectID is the GCP project ID.
	ProjectID string

	// Location is the BigQuery region. It is pinned in config and never
	// auto-detected; cross-region estimates are not comparable.
	Location string

	// CredentialsFile is the service account key path (optional if using ADC).
	CredentialsFile string
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("warehouse: project_id is required")
	}
	if c.Location == "" {
		return fmt.Errorf("warehouse: location is required")
	}
	return nil
}

// Client is a lazily-initialized BigQuery handle. Initialize is idempotent
// and safe for concurrent use; the first caller pays the connection cost.
type Client struct {
	mu     sync.Mutex
	config Config
	client *bigquery.Client
	closed bool
}

// NewClient creates a client without connecting. Call Initialize (or let the
// first DryRun/Run do it) before use.
func NewClient(config Config) *Client {
	return &Client{config: config}
}

// Initialize establishes the BigQuery connection if not already connected.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initLocked(ctx)
}

func (c *Client) initLocked(ctx context.Context) error {
	if c.closed {
		return fmt.Errorf("warehouse: client is closed")
	}
	if c.client != nil {
		return nil
	}
	if err := c.config.Validate(); err != nil {
		return err
	}

	var opts []option.ClientOption
	if c.config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.config.CredentialsFile))
	}
	// With no explicit credentials the SDK falls back to ADC.

	client, err := bigquery.NewClient(ctx, c.config.ProjectID, opts...)
	if err != nil {
		return fmt.Errorf("warehouse: failed to create client: %w", err)
	}
	c.client = client
	return nil
}

func (c *Client) handle(ctx context.Context) (*bigquery.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.initLocked(ctx); err != nil {
		return nil, err
	}
	return c.client, nil
}

// DryRun submits the statement in dry-run mode and returns the scan estimate.
func (c *Client) DryRun(ctx context.Context, sql string) (int64, error) {
	client, err := c.handle(ctx)
	if err != nil {
		return 0, err
	}

	q := client.Query(sql)
	q.DryRun = true
	q.Location = c.config.Location

	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("warehouse: dry run failed: %w", err)
	}

	status := job.LastStatus()
	if status == nil || status.Statistics == nil {
		return 0, fmt.Errorf("warehouse: dry run returned no statistics")
	}
	return status.Statistics.TotalBytesProcessed, nil
}

// Run executes the statement with the billing cap and timeout from opts.
// One shot: a failed or killed job is returned as an error, never retried.
func (c *Client) Run(ctx context.Context, sql string, opts RunOptions) (*Result, error) {
	client, err := c.handle(ctx)
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	q := client.Query(sql)
	q.Location = c.config.Location
	q.MaxBytesBilled = opts.MaxBytesBilled
	if len(opts.Labels) > 0 {
		q.Labels = opts.Labels
	}

	start := time.Now()
	job, err := q.Run(runCtx)
	if err != nil {
		return nil, fmt.Errorf("warehouse: job submit failed: %w", err)
	}

	status, err := job.Wait(runCtx)
	if err != nil {
		return nil, fmt.Errorf("warehouse: job %s wait failed: %w", job.ID(), err)
	}
	if err := status.Err(); err != nil {
		return nil, fmt.Errorf("warehouse: job %s failed: %w", job.ID(), err)
	}

	it, err := job.Read(runCtx)
	if err != nil {
		return nil, fmt.Errorf("warehouse: job %s read failed: %w", job.ID(), err)
	}

	var rows []Row
	for {
		var row Row
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("warehouse: job %s row fetch failed: %w", job.ID(), err)
		}
		rows = append(rows, row)
	}

	result := &Result{
		Rows:     rows,
		JobID:    job.ID(),
		Duration: time.Since(start),
	}
	if status.Statistics != nil {
		result.BytesProcessed = status.Statistics.TotalBytesProcessed
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			result.BytesBilled = qs.TotalBytesBilled
		}
	}
	return result, nil
}

// Ping verifies warehouse connectivity with a trivial query.
func (c *Client) Ping(ctx context.Context) error {
	client, err := c.handle(ctx)
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	q := client.Query("SELECT 1")
	q.Location = c.config.Location
	it, err := q.Read(pingCtx)
	if err != nil {
		return fmt.Errorf("warehouse: ping failed: %w", err)
	}

	var row []bigquery.Value
	if err := it.Next(&row); err != nil && err != iterator.Done {
		return fmt.Errorf("warehouse: ping read failed: %w", err)
	}
	return nil
}

// Close releases the underlying client. Idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

var _ Runner = (*Client)(nil)

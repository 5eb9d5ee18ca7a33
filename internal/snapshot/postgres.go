package snapshot

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/briefdash-labs/briefdash/internal/errors"
)

// PostgresStore keeps one row per family in Postgres for deployments that
// want the latest snapshot to survive cache flushes. The single-row UPSERT
// gives the atomic single-document write the contract requires.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool against the given DSN.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.NewStoreUnavailable("postgres open failed", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreWithDB wraps an existing handle. Useful for tests.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the snapshots table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS snapshots (
			family     TEXT PRIMARY KEY,
			version    TEXT NOT NULL,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			updated_by TEXT NOT NULL
		)`
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return errors.NewStoreUnavailable("postgres schema setup failed", err)
	}
	return nil
}

// GetLatest reads the row for the family.
func (p *PostgresStore) GetLatest(ctx context.Context, family string) (*Snapshot, error) {
	const query = `
		SELECT family, version, data, updated_at, updated_by
		FROM snapshots
		WHERE family = $1`

	snap := &Snapshot{}
	err := p.db.QueryRowContext(ctx, query, family).Scan(
		&snap.Family, &snap.Version, &snap.Data, &snap.UpdatedAt, &snap.UpdatedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStoreUnavailable("postgres read failed", err)
	}
	return snap, nil
}

// SetLatest upserts the row for the family. Last write wins.
func (p *PostgresStore) SetLatest(ctx context.Context, family string, snap *Snapshot) error {
	const query = `
		INSERT INTO snapshots (family, version, data, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (family) DO UPDATE SET
			version = EXCLUDED.version,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by`

	_, err := p.db.ExecContext(ctx, query,
		family, snap.Version, []byte(snap.Data), snap.UpdatedAt, snap.UpdatedBy)
	if err != nil {
		return errors.NewStoreUnavailable("postgres write failed", err)
	}
	return nil
}

// Ping verifies connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return errors.NewStoreUnavailable("postgres ping failed", err)
	}
	return nil
}

// Close releases the pool.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}

var _ Store = (*PostgresStore)(nil)

// Package snapshot persists the latest reshaped bundle per metric family.
// One "latest" document per family, last-write-wins, no history.
package snapshot

import (
	"context"
	"encoding/json"
	"time"
)

// CurrentVersion is the envelope version tag written with every snapshot.
// Readers branch on this explicit tag instead of probing the payload shape.
const CurrentVersion = "v2"

// Known metric families.
const (
	FamilySouke           = "souke"
	FamilyNaitei          = "naitei"
	FamilyChannelOverview = "channel-overview"
	FamilyChannelDetail   = "channel-detail"
)

// Snapshot is the versioned envelope around one persisted bundle.
type Snapshot struct {
	Family    string          `json:"family"`
	Version   string          `json:"version"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updatedAt"`
	UpdatedBy string          `json:"updatedBy"`
}

// Age returns how old the snapshot is at the given instant.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.UpdatedAt)
}

// IsExpired reports whether the snapshot is older than ttl. Staleness is
// always derived at read time, never stored.
func (s *Snapshot) IsExpired(now time.Time, ttl time.Duration) bool {
	return s.Age(now) > ttl
}

// Store is the persistence contract. Both operations are atomic at the
// single-document level; there are no transactions across families.
type Store interface {
	// GetLatest returns the latest snapshot for the family, or nil if
	// none has been written yet.
	GetLatest(ctx context.Context, family string) (*Snapshot, error)

	// SetLatest replaces the latest snapshot for the family.
	// Last write wins.
	SetLatest(ctx context.Context, family string, snap *Snapshot) error

	// Close releases any underlying connections.
	Close() error
}

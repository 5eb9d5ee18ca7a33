package snapshot

import (
	"context"
	"sync"

	"github.com/briefdash-labs/briefdash/internal/errors"
)

// MemoryStore is an in-process Store for tests and single-node development.
// Failure toggles let tests exercise the gateway's degraded paths.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot

	// FailReads and FailWrites force store-unavailable errors.
	FailReads  bool
	FailWrites bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]*Snapshot)}
}

// GetLatest returns the stored snapshot, or nil if none exists.
func (m *MemoryStore) GetLatest(ctx context.Context, family string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailReads {
		return nil, errors.NewStoreUnavailable("memory store reads disabled", nil)
	}

	snap, ok := m.snapshots[family]
	if !ok {
		return nil, nil
	}
	copied := *snap
	return &copied, nil
}

// SetLatest replaces the stored snapshot. Last write wins.
func (m *MemoryStore) SetLatest(ctx context.Context, family string, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return errors.NewStoreUnavailable("memory store writes disabled", nil)
	}

	copied := *snap
	m.snapshots[family] = &copied
	return nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

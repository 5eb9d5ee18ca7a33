package snapshot

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefdash-labs/briefdash/internal/errors"
)

func testSnapshot(family string, at time.Time) *Snapshot {
	return &Snapshot{
		Family:    family,
		Version:   CurrentVersion,
		Data:      json.RawMessage(`{"daily":{}}`),
		UpdatedAt: at,
		UpdatedBy: "test",
	}
}

func TestMemoryStore_GetBeforeAnyWrite(t *testing.T) {
	store := NewMemoryStore()

	snap, err := store.GetLatest(context.Background(), FamilySouke)
	require.NoError(t, err)
	assert.Nil(t, snap, "a missing snapshot is nil, not an error")
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	written := testSnapshot(FamilySouke, time.Date(2025, 8, 19, 7, 0, 0, 0, time.UTC))

	require.NoError(t, store.SetLatest(context.Background(), FamilySouke, written))

	got, err := store.GetLatest(context.Background(), FamilySouke)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, FamilySouke, got.Family)
	assert.Equal(t, CurrentVersion, got.Version)
	assert.Equal(t, "test", got.UpdatedBy)
	assert.JSONEq(t, `{"daily":{}}`, string(got.Data))
}

func TestMemoryStore_LastWriteWins(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := testSnapshot(FamilyNaitei, time.Date(2025, 8, 18, 7, 0, 0, 0, time.UTC))
	second := testSnapshot(FamilyNaitei, time.Date(2025, 8, 19, 7, 0, 0, 0, time.UTC))
	second.UpdatedBy = "scheduler"

	require.NoError(t, store.SetLatest(ctx, FamilyNaitei, first))
	require.NoError(t, store.SetLatest(ctx, FamilyNaitei, second))

	got, err := store.GetLatest(ctx, FamilyNaitei)
	require.NoError(t, err)
	assert.Equal(t, "scheduler", got.UpdatedBy)
	assert.Equal(t, second.UpdatedAt, got.UpdatedAt)
}

func TestMemoryStore_FamiliesAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.SetLatest(ctx, FamilySouke, testSnapshot(FamilySouke, time.Now())))

	got, err := store.GetLatest(ctx, FamilyChannelOverview)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.SetLatest(ctx, FamilySouke, testSnapshot(FamilySouke, time.Now())))

	got, err := store.GetLatest(ctx, FamilySouke)
	require.NoError(t, err)
	got.UpdatedBy = "mutated"

	again, err := store.GetLatest(ctx, FamilySouke)
	require.NoError(t, err)
	assert.Equal(t, "test", again.UpdatedBy)
}

func TestMemoryStore_FailureToggles(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.FailWrites = true
	err := store.SetLatest(ctx, FamilySouke, testSnapshot(FamilySouke, time.Now()))
	require.Error(t, err)
	_, ok := errors.AsStoreUnavailable(err)
	assert.True(t, ok)

	store.FailWrites = false
	store.FailReads = true
	require.NoError(t, store.SetLatest(ctx, FamilySouke, testSnapshot(FamilySouke, time.Now())))
	_, err = store.GetLatest(ctx, FamilySouke)
	require.Error(t, err)
	_, ok = errors.AsStoreUnavailable(err)
	assert.True(t, ok)
}

func TestSnapshot_StalenessDerivedAtRead(t *testing.T) {
	updated := time.Date(2025, 8, 18, 7, 0, 0, 0, time.UTC)
	snap := testSnapshot(FamilySouke, updated)
	ttl := 24 * time.Hour

	assert.False(t, snap.IsExpired(updated.Add(23*time.Hour), ttl))
	assert.False(t, snap.IsExpired(updated.Add(24*time.Hour), ttl), "exactly at TTL is still fresh")
	assert.True(t, snap.IsExpired(updated.Add(24*time.Hour+time.Second), ttl))

	assert.Equal(t, 23*time.Hour, snap.Age(updated.Add(23*time.Hour)))
}

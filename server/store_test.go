package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRecordAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	want := Run{
		Id: "r1", Rows: 21, Cols: 21, Seed: 9,
		StartX: 1, StartY: 1, GoalX: 19, GoalY: 19,
		Found: true, PathLength: 57, Expanded: 80,
		CreatedAt: time.Unix(0, 1700000000000000000),
	}
	require.NoError(t, store.Record(ctx, want))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStoreRecentNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Record(ctx, Run{Id: id, Rows: 5, Cols: 5, CreatedAt: base.Add(time.Duration(i) * time.Second)}))
	}

	runs, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].Id)
	assert.Equal(t, "b", runs[1].Id)
}

func TestStoreDuplicateId(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Record(ctx, Run{Id: "dup"}))
	assert.Error(t, store.Record(ctx, Run{Id: "dup"}))
}

func TestStoreInMemory(t *testing.T) {
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Record(context.Background(), Run{Id: "m"}))
	runs, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	assert.False(t, runs[0].CreatedAt.IsZero())
}

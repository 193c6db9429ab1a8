package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reposync/internal/core/domain"
)

func TestSyncRunStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	store := NewSyncRunStore()
	base := time.Unix(1000, 0)

	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, store.RecordRun(ctx, &domain.SyncRun{
			ID:        id,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].ID)
	assert.Equal(t, "r2", runs[1].ID)

	run, err := store.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, base, run.StartedAt)

	_, err = store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncRunStore_RecordInvalid(t *testing.T) {
	store := NewSyncRunStore()
	assert.ErrorIs(t, store.RecordRun(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.RecordRun(context.Background(), &domain.SyncRun{}), domain.ErrInvalidInput)
}

func TestSyncRunStore_Prune(t *testing.T) {
	ctx := context.Background()
	store := NewSyncRunStore()
	base := time.Unix(1000, 0)
	for i, id := range []string{"r1", "r2", "r3", "r4"} {
		require.NoError(t, store.RecordRun(ctx, &domain.SyncRun{ID: id, StartedAt: base.Add(time.Duration(i) * time.Second)}))
	}

	require.NoError(t, store.PruneRuns(ctx, 2))

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r4", runs[0].ID)
	assert.Equal(t, "r3", runs[1].ID)
}

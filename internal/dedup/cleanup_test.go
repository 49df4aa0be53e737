package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graemeboulton/job-insights-project/internal/pipeline"
	"github.com/graemeboulton/job-insights-project/internal/store"
)

func TestCleanupRemovesExtraRowsAndVerifies(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	seedEndToEnd(m)

	res, err := Cleanup(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalRemoved())
	assert.Equal(t, int64(2), res.Removed[0].Removed)
	assert.Equal(t, int64(0), res.Removed[1].Removed)
	require.NotNil(t, res.Verification)
	assert.True(t, res.Verification.AllClean())
}

func TestCleanupSurvivorPolicy(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	m.Insert(pipeline.Landing, key("indeed", "job1"))
	m.Insert(pipeline.Landing, key("indeed", "job1"))
	newest := m.Insert(pipeline.Landing, key("indeed", "job1"))

	_, err := Cleanup(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, []int64{newest}, m.RowIDs(pipeline.Landing, key("indeed", "job1")),
		"the most recently inserted row must survive")
}

func TestCleanupIdempotent(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	seedEndToEnd(m)

	first, err := Cleanup(ctx, m)
	require.NoError(t, err)
	require.Equal(t, int64(2), first.TotalRemoved())
	after := m.Snapshot(pipeline.Landing)

	second, err := Cleanup(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.TotalRemoved())
	assert.Equal(t, after, m.Snapshot(pipeline.Landing), "second run must not change state")
	assert.True(t, second.Verification.AllClean())
}

func TestCleanupAtomicRollback(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	seedEndToEnd(m)
	m.Insert(pipeline.Skills, skillKey("indeed", "job1", "sql")) // dirty third table
	boom := errors.New("disk on fire")
	m.FailDeletesOn(pipeline.Skills, boom)

	res, err := Cleanup(ctx, m)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, res)

	// The landing deletions in the same transaction must have been
	// rolled back: all three physical rows are still present.
	c, err := m.Counts(ctx, pipeline.Landing)
	require.NoError(t, err)
	assert.Equal(t, int64(4), c.Total)
	c, err = m.Counts(ctx, pipeline.Skills)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.Total)
}

func TestCleanupOnCleanStoreIsNoOp(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	m.Insert(pipeline.Landing, key("indeed", "a"))
	m.Insert(pipeline.Staging, key("indeed", "a"))

	res, err := Cleanup(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.TotalRemoved())
	assert.True(t, res.Verification.AllClean())
}

package dedup

import (
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graemeboulton/job-insights-project/internal/pipeline"
	"github.com/graemeboulton/job-insights-project/internal/store"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func key(source, job string) pipeline.NaturalKey {
	return pipeline.NaturalKey{SourceName: source, JobID: job}
}

func skillKey(source, job, skill string) pipeline.NaturalKey {
	return pipeline.NaturalKey{SourceName: source, JobID: job, Skill: skill}
}

// seedEndToEnd loads the canonical dirty fixture: one tripled landing
// key, one singleton, clean staging and skills tables.
func seedEndToEnd(m *store.Memory) {
	for i := 0; i < 3; i++ {
		m.Insert(pipeline.Landing, key("indeed", "job1"))
	}
	m.Insert(pipeline.Landing, key("indeed", "job2"))
	m.Insert(pipeline.Staging, key("indeed", "job1"))
	m.Insert(pipeline.Staging, key("indeed", "job2"))
	m.Insert(pipeline.Skills, skillKey("indeed", "job1", "sql"))
}

func TestDetectCompleteness(t *testing.T) {
	m := store.NewMemory()
	// 4 distinct keys with count > 1, plus singletons that must not count.
	m.Insert(pipeline.Landing, key("indeed", "solo"))
	for _, k := range []pipeline.NaturalKey{
		key("indeed", "a"), key("indeed", "b"), key("reed", "c"), key("reed", "d"),
	} {
		m.Insert(pipeline.Landing, k)
		m.Insert(pipeline.Landing, k)
	}
	m.Insert(pipeline.Staging, key("indeed", "solo"))

	rep, err := Detect(context.Background(), m)
	require.NoError(t, err)
	require.Len(t, rep.Tables, 3)
	assert.Len(t, rep.Tables[0].Groups, 4)
	assert.Empty(t, rep.Tables[1].Groups)
	assert.Empty(t, rep.Tables[2].Groups)
	assert.Equal(t, 4, rep.GroupCount())
	assert.Equal(t, int64(4), rep.ExtraRows())
	assert.True(t, rep.HasDuplicates())
}

func TestDetectEndToEndFixture(t *testing.T) {
	m := store.NewMemory()
	seedEndToEnd(m)

	rep, err := Detect(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.GroupCount())
	assert.Equal(t, int64(2), rep.ExtraRows())
	require.Len(t, rep.Tables[0].Groups, 1)
	assert.Equal(t, key("indeed", "job1"), rep.Tables[0].Groups[0].Key)
	assert.Equal(t, int64(3), rep.Tables[0].Groups[0].Count)
}

func TestDetectCleanStore(t *testing.T) {
	m := store.NewMemory()
	m.Insert(pipeline.Landing, key("indeed", "a"))
	m.Insert(pipeline.Staging, key("indeed", "a"))
	m.Insert(pipeline.Skills, skillKey("indeed", "a", "sql"))

	rep, err := Detect(context.Background(), m)
	require.NoError(t, err)
	assert.False(t, rep.HasDuplicates())
	assert.Equal(t, 0, rep.GroupCount())
}

// failingStore fails reads on one table; Detect must return no partial
// report.
type failingStore struct {
	*store.Memory
	failOn string
	err    error
}

func (f *failingStore) DuplicateGroups(ctx context.Context, t pipeline.Table) ([]store.DuplicateGroup, error) {
	if t.Qualified() == f.failOn {
		return nil, f.err
	}
	return f.Memory.DuplicateGroups(ctx, t)
}

func TestDetectFailsWholeOnAnyTable(t *testing.T) {
	m := store.NewMemory()
	seedEndToEnd(m)
	fs := &failingStore{Memory: m, failOn: pipeline.Skills.Qualified(), err: store.ErrUnavailable}

	rep, err := Detect(context.Background(), fs)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Nil(t, rep)
}

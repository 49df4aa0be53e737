package dedup

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graemeboulton/job-insights-project/internal/pipeline"
	"github.com/graemeboulton/job-insights-project/internal/store"
)

func TestFormatCleanReport(t *testing.T) {
	m := store.NewMemory()
	m.Insert(pipeline.Landing, key("indeed", "a"))
	rep, err := Detect(context.Background(), m)
	require.NoError(t, err)

	text, hasDuplicates := Format(rep)
	assert.False(t, hasDuplicates)
	assert.Contains(t, text, "ALL TABLES CLEAN - NO DUPLICATES DETECTED")
	assert.Contains(t, text, `Landing layer ("landing".raw_jobs)`)
	assert.Contains(t, text, "no duplicates")
	assert.NotContains(t, text, "DUPLICATES FOUND")
}

func TestFormatDirtyReport(t *testing.T) {
	m := store.NewMemory()
	seedEndToEnd(m)
	rep, err := Detect(context.Background(), m)
	require.NoError(t, err)

	text, hasDuplicates := Format(rep)
	assert.True(t, hasDuplicates)
	assert.Contains(t, text, "found 1 duplicate groups, 2 extra rows")
	assert.Contains(t, text, "indeed/job1: 3 copies")
	assert.Contains(t, text, "DUPLICATES FOUND: 1 groups, 2 extra rows")
}

func TestFormatTruncatesAtFiveGroups(t *testing.T) {
	m := store.NewMemory()
	for i := 0; i < 8; i++ {
		k := key("indeed", fmt.Sprintf("job%d", i))
		m.Insert(pipeline.Landing, k)
		m.Insert(pipeline.Landing, k)
	}
	rep, err := Detect(context.Background(), m)
	require.NoError(t, err)

	text, _ := Format(rep)
	assert.Contains(t, text, "... and 3 more")
	assert.Equal(t, 5, strings.Count(text, "copies"))
}

func TestFormatDeterministic(t *testing.T) {
	m := store.NewMemory()
	seedEndToEnd(m)
	rep, err := Detect(context.Background(), m)
	require.NoError(t, err)

	a, _ := Format(rep)
	b, _ := Format(rep)
	assert.Equal(t, a, b)
}

func TestWriteBackup(t *testing.T) {
	m := store.NewMemory()
	seedEndToEnd(m)
	m.Insert(pipeline.Skills, skillKey("indeed", "job1", "sql")) // duplicate skill row
	rep, err := Detect(context.Background(), m)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "backup.jsonl")
	require.NoError(t, WriteBackup(path, rep))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []backupLine
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var line backupLine
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, sc.Err())

	require.Len(t, lines, 2)
	assert.Equal(t, `"landing".raw_jobs`, lines[0].Table)
	assert.Equal(t, "job1", lines[0].JobID)
	assert.Equal(t, int64(3), lines[0].Count)
	assert.Equal(t, "sql", lines[1].Skill)
}

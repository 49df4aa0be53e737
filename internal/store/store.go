// Package store is the data-access layer for the pipeline maintenance
// tools. The Postgres implementation does the real work; Memory is a
// deterministic offline stand-in used by tests and local dry runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/graemeboulton/job-insights-project/internal/pipeline"
)

var (
	// ErrUnavailable marks connection or query failures on read paths.
	ErrUnavailable = errors.New("record store unavailable")

	// ErrCleanupFailed marks a deletion failure inside the cleanup
	// transaction. By the time a caller sees it, the transaction has
	// been rolled back.
	ErrCleanupFailed = errors.New("cleanup transaction failed")
)

// DuplicateGroup is one natural key holding more than one physical row.
type DuplicateGroup struct {
	Key   pipeline.NaturalKey `json:"key"`
	Count int64               `json:"count"`
}

// ExtraRows is the number of rows beyond the single one that should
// exist for this key.
func (g DuplicateGroup) ExtraRows() int64 {
	return g.Count - 1
}

// Counts pairs a table's total row count with its distinct-key count.
// The table is duplicate-free exactly when the two are equal.
type Counts struct {
	Total    int64
	Distinct int64
}

// Store is the read/delete surface the dedup components run against.
// All operations are blocking; mutation happens only through Tx.
type Store interface {
	// DuplicateGroups returns every natural-key group in t with more
	// than one physical row, ordered by count descending.
	DuplicateGroups(ctx context.Context, t pipeline.Table) ([]DuplicateGroup, error)

	// Counts returns the table's total and distinct-key row counts in
	// a single aggregate query.
	Counts(ctx context.Context, t pipeline.Table) (Counts, error)

	// Begin opens the transaction used for cleanup deletions.
	Begin(ctx context.Context) (Tx, error)
}

// Tx scopes the cleanup deletions. Either Commit or Rollback must be
// called; Rollback after a failed Commit is a no-op.
type Tx interface {
	// DeleteDuplicates removes every physical row in t that shares a
	// natural key with a row that has a greater physical identifier,
	// keeping exactly the newest row per key. Returns rows removed.
	DeleteDuplicates(ctx context.Context, t pipeline.Table) (int64, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// RunRecord is one row of the maintenance run log.
type RunRecord struct {
	RunID       uuid.UUID
	StartedAt   time.Time
	Mode        string
	GroupsFound int64
	RowsRemoved int64
	Verified    *bool
	Note        string
}

// RunLog is implemented by stores that keep a maintenance audit trail.
// The orchestrator records a run when the store supports it and says
// nothing when it does not.
type RunLog interface {
	RecordRun(ctx context.Context, rec RunRecord) error
}

// TitleSource is implemented by stores that can supply job titles from
// the staging layer; the title classifier trains on them.
type TitleSource interface {
	JobTitles(ctx context.Context) ([]string, error)
}

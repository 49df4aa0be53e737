package dedup

import (
	"context"
	"fmt"

	"github.com/graemeboulton/job-insights-project/internal/pipeline"
	"github.com/graemeboulton/job-insights-project/internal/store"
)

// TableRemoval is the number of rows cleanup removed from one table.
type TableRemoval struct {
	Table   pipeline.Table
	Removed int64
}

// CleanupResult reports what a cleanup pass removed, plus the
// verification that ran after the commit. Verification is nil only
// when Cleanup returned an error.
type CleanupResult struct {
	Removed      []TableRemoval
	Verification *VerificationResult
}

// TotalRemoved sums the per-table removal counts.
func (r *CleanupResult) TotalRemoved() int64 {
	var n int64
	for _, tr := range r.Removed {
		n += tr.Removed
	}
	return n
}

// Cleanup deletes all but the newest physical row per natural-key
// group in every pipeline table, inside a single transaction. Any
// deletion failure rolls the whole transaction back; no partial
// cleanup is ever committed. After a successful commit it re-verifies
// the tables and attaches the result.
//
// Running it on an already-clean store is a committed no-op with zero
// removal counts.
func Cleanup(ctx context.Context, st store.Store) (*CleanupResult, error) {
	tx, err := st.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("cleanup: %w", err)
	}

	res := &CleanupResult{}
	for _, t := range pipeline.All() {
		n, err := tx.DeleteDuplicates(ctx, t)
		if err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("cleanup %s: %w", t.Qualified(), err)
		}
		res.Removed = append(res.Removed, TableRemoval{Table: t, Removed: n})
	}
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("cleanup: %w", err)
	}

	// Rows are committed from here on; a verification failure must not
	// mask that, so the partial result travels with the error.
	v, err := Verify(ctx, st)
	if err != nil {
		return res, fmt.Errorf("post-cleanup %w", err)
	}
	res.Verification = v
	return res, nil
}

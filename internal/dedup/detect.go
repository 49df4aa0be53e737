// Package dedup implements duplicate detection, reporting, cleanup and
// post-cleanup verification for the three pipeline tables. Every piece
// takes the store as an argument; nothing here holds connection state.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/graemeboulton/job-insights-project/internal/pipeline"
	"github.com/graemeboulton/job-insights-project/internal/store"
)

// TableReport holds one table's duplicate groups, ordered by count
// descending as the store returns them.
type TableReport struct {
	Table  pipeline.Table         `json:"table"`
	Groups []store.DuplicateGroup `json:"groups"`
}

// ExtraRows is the number of rows cleanup would remove from this table.
func (tr TableReport) ExtraRows() int64 {
	var n int64
	for _, g := range tr.Groups {
		n += g.ExtraRows()
	}
	return n
}

// Report is one detection pass over all three tables. It is computed
// fresh per invocation and never persisted (the optional backup file
// aside).
type Report struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Tables      []TableReport `json:"tables"`
}

// GroupCount is the total number of duplicate groups across tables.
func (r *Report) GroupCount() int {
	n := 0
	for _, tr := range r.Tables {
		n += len(tr.Groups)
	}
	return n
}

// ExtraRows is the total number of removable rows across tables.
func (r *Report) ExtraRows() int64 {
	var n int64
	for _, tr := range r.Tables {
		n += tr.ExtraRows()
	}
	return n
}

// HasDuplicates reports whether any table holds at least one group.
func (r *Report) HasDuplicates() bool {
	return r.GroupCount() > 0
}

// Detect runs the grouping query against each pipeline table. It is
// read-only and all-or-nothing: a failure on any table fails the whole
// detection with no partial report.
func Detect(ctx context.Context, st store.Store) (*Report, error) {
	rep := &Report{GeneratedAt: time.Now().UTC()}
	for _, t := range pipeline.All() {
		groups, err := st.DuplicateGroups(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("detect %s: %w", t.Qualified(), err)
		}
		rep.Tables = append(rep.Tables, TableReport{Table: t, Groups: groups})
	}
	return rep, nil
}

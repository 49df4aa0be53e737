package dedup

import (
	"context"
	"fmt"
	"strings"

	"github.com/graemeboulton/job-insights-project/internal/pipeline"
	"github.com/graemeboulton/job-insights-project/internal/store"
)

// TableVerification is one table's total-vs-distinct row counts.
type TableVerification struct {
	Table  pipeline.Table
	Counts store.Counts
}

// Clean reports whether every physical row in the table carries a
// distinct natural key.
func (tv TableVerification) Clean() bool {
	return tv.Counts.Total == tv.Counts.Distinct
}

// VerificationResult covers all three tables.
type VerificationResult struct {
	Tables []TableVerification
}

// AllClean is the AND of the per-table results.
func (v *VerificationResult) AllClean() bool {
	for _, tv := range v.Tables {
		if !tv.Clean() {
			return false
		}
	}
	return true
}

// Verify re-counts every pipeline table with one aggregate query each.
// Read-only; usable standalone as a health check as well as the
// post-cleanup assertion.
func Verify(ctx context.Context, st store.Store) (*VerificationResult, error) {
	res := &VerificationResult{}
	for _, t := range pipeline.All() {
		c, err := st.Counts(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", t.Qualified(), err)
		}
		res.Tables = append(res.Tables, TableVerification{Table: t, Counts: c})
	}
	return res, nil
}

// FormatVerification renders the verification block for operators.
func FormatVerification(v *VerificationResult) string {
	var b strings.Builder
	b.WriteString("Verification:\n")
	for _, tv := range v.Tables {
		mark := okMark("OK")
		if !tv.Clean() {
			mark = warnMark("DUPLICATES REMAIN")
		}
		fmt.Fprintf(&b, "   %s: %d rows, %d unique %s\n",
			tv.Table.Qualified(), tv.Counts.Total, tv.Counts.Distinct, mark)
	}
	if v.AllClean() {
		fmt.Fprintf(&b, "\n   %s\n", okMark("all tables verified clean"))
	} else {
		fmt.Fprintf(&b, "\n   %s\n", warnMark("some tables still have duplicates"))
	}
	return b.String()
}

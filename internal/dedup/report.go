package dedup

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// maxGroupsShown caps how many groups are listed per table before the
// report collapses the rest into an "and N more" line.
const maxGroupsShown = 5

const divider = "======================================================================"

var (
	okMark   = color.New(color.FgGreen).SprintfFunc()
	warnMark = color.New(color.FgYellow).SprintfFunc()
)

// Format renders a detection report for operators and returns whether
// any duplicates were found. Pure: same report in, same text out; the
// caller decides where the text goes.
func Format(rep *Report) (string, bool) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nDUPLICATE DETECTION REPORT\n%s\n\n", divider, divider)

	for i, tr := range rep.Tables {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%s)\n", tr.Table.Label, tr.Table.Qualified())
		if len(tr.Groups) == 0 {
			fmt.Fprintf(&b, "   %s\n", okMark("no duplicates"))
			continue
		}
		fmt.Fprintf(&b, "   %s\n", warnMark("found %d duplicate groups, %d extra rows",
			len(tr.Groups), tr.ExtraRows()))
		for _, g := range tr.Groups[:min(len(tr.Groups), maxGroupsShown)] {
			fmt.Fprintf(&b, "      %s: %d copies\n", g.Key, g.Count)
		}
		if extra := len(tr.Groups) - maxGroupsShown; extra > 0 {
			fmt.Fprintf(&b, "      ... and %d more\n", extra)
		}
	}

	b.WriteString("\n" + divider + "\n")
	if rep.HasDuplicates() {
		fmt.Fprintf(&b, "%s\n", warnMark("DUPLICATES FOUND: %d groups, %d extra rows",
			rep.GroupCount(), rep.ExtraRows()))
	} else {
		fmt.Fprintf(&b, "%s\n", okMark("ALL TABLES CLEAN - NO DUPLICATES DETECTED"))
	}
	b.WriteString(divider + "\n\n")
	return b.String(), rep.HasDuplicates()
}

// backupLine is one duplicate group as written to the backup report.
type backupLine struct {
	GeneratedAt string `json:"generated_at"`
	Table       string `json:"table"`
	SourceName  string `json:"source_name"`
	JobID       string `json:"job_id"`
	Skill       string `json:"skill,omitempty"`
	Count       int64  `json:"count"`
}

// WriteBackup writes the report's duplicate groups to path as JSONL,
// one group per line. The orchestrator calls this before any cleanup
// so the removed groups stay reconstructible afterwards.
func WriteBackup(path string, rep *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("backup report: %w", err)
	}
	enc := json.NewEncoder(f)
	ts := rep.GeneratedAt.Format(time.RFC3339)
	for _, tr := range rep.Tables {
		for _, g := range tr.Groups {
			line := backupLine{
				GeneratedAt: ts,
				Table:       tr.Table.Qualified(),
				SourceName:  g.Key.SourceName,
				JobID:       g.Key.JobID,
				Skill:       g.Key.Skill,
				Count:       g.Count,
			}
			if err := enc.Encode(line); err != nil {
				f.Close()
				return fmt.Errorf("backup report: %w", err)
			}
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("backup report: %w", err)
	}
	return nil
}

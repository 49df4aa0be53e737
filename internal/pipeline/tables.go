// Package pipeline describes the three tables of the job-postings
// ingestion pipeline and the natural keys that define logical row
// identity in each of them.
package pipeline

import (
	"regexp"
	"strings"
)

// Table identifies one pipeline table and the columns forming its
// natural key. KeyColumns order matters: it is the order used in
// GROUP BY clauses and in NaturalKey rendering.
type Table struct {
	Schema     string
	Name       string
	Label      string
	KeyColumns []string
}

var (
	// Landing holds raw scraped postings exactly as ingested.
	Landing = Table{
		Schema:     "landing",
		Name:       "raw_jobs",
		Label:      "Landing layer",
		KeyColumns: []string{"source_name", "job_id"},
	}

	// Staging holds the deduplicated canonical postings.
	Staging = Table{
		Schema:     "staging",
		Name:       "jobs_v1",
		Label:      "Staging layer",
		KeyColumns: []string{"source_name", "job_id"},
	}

	// Skills holds one row per posting per extracted skill tag.
	Skills = Table{
		Schema:     "staging",
		Name:       "job_skills",
		Label:      "Job skills",
		KeyColumns: []string{"source_name", "job_id", "skill"},
	}
)

// All returns the pipeline tables in layer order. Detection, cleanup
// and verification all walk them in this order.
func All() []Table {
	return []Table{Landing, Staging, Skills}
}

// Qualified returns the schema-qualified table name as used in SQL.
func (t Table) Qualified() string {
	return `"` + t.Schema + `".` + t.Name
}

// KeyList returns the natural-key columns as a comma-separated SQL list.
func (t Table) KeyList() string {
	return strings.Join(t.KeyColumns, ", ")
}

// HasSkill reports whether the table's natural key includes the skill
// column (three-column key) or only (source_name, job_id).
func (t Table) HasSkill() bool {
	return len(t.KeyColumns) == 3
}

var safeIdentRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// SafeIdents reports whether the schema, table and key column names are
// all plain identifiers. Table metadata is interpolated into SQL text,
// so anything else is rejected up front.
func (t Table) SafeIdents() bool {
	if !safeIdentRE.MatchString(t.Schema) || !safeIdentRE.MatchString(t.Name) {
		return false
	}
	for _, c := range t.KeyColumns {
		if !safeIdentRE.MatchString(c) {
			return false
		}
	}
	return true
}

// NaturalKey is the logical identity of a pipeline row. Skill is empty
// for the landing and staging tables.
type NaturalKey struct {
	SourceName string `json:"source_name"`
	JobID      string `json:"job_id"`
	Skill      string `json:"skill,omitempty"`
}

// String renders the key the way the reports print it:
// source/job_id, or source/job_id/skill for the skills table.
func (k NaturalKey) String() string {
	if k.Skill != "" {
		return k.SourceName + "/" + k.JobID + "/" + k.Skill
	}
	return k.SourceName + "/" + k.JobID
}

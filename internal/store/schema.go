package store

import (
	"context"
	"fmt"

	"github.com/graemeboulton/job-insights-project/internal/pipeline"
)

// EnsureSchema creates the pipeline schemas and tables when missing.
// The pipeline tables deliberately carry no unique constraints on the
// natural keys: upstream ingestion appends, and this toolchain owns
// deduplication.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE SCHEMA IF NOT EXISTS landing;
CREATE SCHEMA IF NOT EXISTS staging;
CREATE SCHEMA IF NOT EXISTS maintenance;

CREATE TABLE IF NOT EXISTS landing.raw_jobs (
  source_name text NOT NULL,
  job_id      text NOT NULL,
  job_title   text,
  company     text,
  location    text,
  raw_payload jsonb,
  ingested_at timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS raw_jobs_key_idx
  ON landing.raw_jobs (source_name, job_id);

CREATE TABLE IF NOT EXISTS staging.jobs_v1 (
  source_name text NOT NULL,
  job_id      text NOT NULL,
  job_title   text,
  company     text,
  location    text,
  loaded_at   timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS jobs_v1_key_idx
  ON staging.jobs_v1 (source_name, job_id);

CREATE TABLE IF NOT EXISTS staging.job_skills (
  source_name text NOT NULL,
  job_id      text NOT NULL,
  skill       text NOT NULL,
  extracted_at timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS job_skills_key_idx
  ON staging.job_skills (source_name, job_id, skill);

CREATE TABLE IF NOT EXISTS maintenance.dedup_runs (
  run_id       uuid PRIMARY KEY,
  started_at   timestamptz NOT NULL,
  finished_at  timestamptz NOT NULL DEFAULT now(),
  mode         text NOT NULL,
  groups_found bigint NOT NULL DEFAULT 0,
  rows_removed bigint NOT NULL DEFAULT 0,
  verified     boolean,
  note         text
);
`
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SeedSynthetic inserts a small synthetic data set for local runs.
// With duplicates enabled it reproduces the canonical dirty fixture:
// ("indeed","job1") three times in landing plus doubled staging and
// skills rows, alongside clean singleton rows.
func (p *Postgres) SeedSynthetic(ctx context.Context, withDuplicates bool) error {
	type seedJob struct {
		source, jobID, title string
		copies               int
	}
	jobs := []seedJob{
		{"indeed", "job1", "Senior Data Engineer", 1},
		{"indeed", "job2", "BI Developer", 1},
		{"reed", "job3", "Data Analyst", 1},
	}
	if withDuplicates {
		jobs[0].copies = 3
	}

	for _, j := range jobs {
		for i := 0; i < j.copies; i++ {
			if _, err := p.pool.Exec(ctx, fmt.Sprintf(
				`INSERT INTO %s (source_name, job_id, job_title, company, location) VALUES ($1,$2,$3,$4,$5)`,
				pipeline.Landing.Qualified()),
				j.source, j.jobID, j.title, "Example Ltd", "Leeds"); err != nil {
				return fmt.Errorf("seed landing: %w", err)
			}
		}
		staged := 1
		if withDuplicates && j.jobID == "job1" {
			staged = 2
		}
		for i := 0; i < staged; i++ {
			if _, err := p.pool.Exec(ctx, fmt.Sprintf(
				`INSERT INTO %s (source_name, job_id, job_title, company, location) VALUES ($1,$2,$3,$4,$5)`,
				pipeline.Staging.Qualified()),
				j.source, j.jobID, j.title, "Example Ltd", "Leeds"); err != nil {
				return fmt.Errorf("seed staging: %w", err)
			}
		}
		for _, skill := range []string{"sql", "python"} {
			copies := 1
			if withDuplicates && j.jobID == "job1" && skill == "sql" {
				copies = 2
			}
			for i := 0; i < copies; i++ {
				if _, err := p.pool.Exec(ctx, fmt.Sprintf(
					`INSERT INTO %s (source_name, job_id, skill) VALUES ($1,$2,$3)`,
					pipeline.Skills.Qualified()),
					j.source, j.jobID, skill); err != nil {
					return fmt.Errorf("seed skills: %w", err)
				}
			}
		}
	}
	return nil
}

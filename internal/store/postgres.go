package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/graemeboulton/job-insights-project/internal/pipeline"
)

// Postgres runs everything against a pgx connection pool. One pool,
// one cleanup transaction at a time; concurrent cleanup passes are an
// operator error, not something this layer coordinates.
type Postgres struct {
	pool *pgxpool.Pool
}

// Open connects to the pipeline database and verifies the connection
// with a ping before handing the store back.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// detectSQL groups t by its natural key and keeps only groups with
// more than one row, biggest first.
func detectSQL(t pipeline.Table) string {
	return fmt.Sprintf(`
SELECT %[1]s, COUNT(*) AS dup_count
FROM %[2]s
GROUP BY %[1]s
HAVING COUNT(*) > 1
ORDER BY dup_count DESC`, t.KeyList(), t.Qualified())
}

// deleteSQL removes every row whose ctid is not the greatest in its
// natural-key group. ctid ordering tracks physical insertion order on
// Postgres heaps, so "greatest ctid" reads as "most recently inserted";
// a port to another store needs an equivalent physical identifier.
func deleteSQL(t pipeline.Table) string {
	return fmt.Sprintf(`
DELETE FROM %[1]s
WHERE ctid NOT IN (
    SELECT MAX(ctid)
    FROM %[1]s
    GROUP BY %[2]s
)`, t.Qualified(), t.KeyList())
}

// countsSQL computes total and distinct-key row counts in one pass.
func countsSQL(t pipeline.Table) string {
	return fmt.Sprintf(`SELECT COUNT(*), COUNT(DISTINCT (%s)) FROM %s`, t.KeyList(), t.Qualified())
}

func checkTable(t pipeline.Table) error {
	if !t.SafeIdents() {
		return fmt.Errorf("unsafe schema/table identifier(s): %s", t.Qualified())
	}
	return nil
}

// DuplicateGroups implements Store.
func (p *Postgres) DuplicateGroups(ctx context.Context, t pipeline.Table) ([]DuplicateGroup, error) {
	if err := checkTable(t); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, detectSQL(t))
	if err != nil {
		return nil, fmt.Errorf("%w: detect %s: %v", ErrUnavailable, t.Qualified(), err)
	}
	defer rows.Close()

	var out []DuplicateGroup
	for rows.Next() {
		var g DuplicateGroup
		if t.HasSkill() {
			err = rows.Scan(&g.Key.SourceName, &g.Key.JobID, &g.Key.Skill, &g.Count)
		} else {
			err = rows.Scan(&g.Key.SourceName, &g.Key.JobID, &g.Count)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: detect %s: %v", ErrUnavailable, t.Qualified(), err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: detect %s: %v", ErrUnavailable, t.Qualified(), err)
	}
	return out, nil
}

// Counts implements Store.
func (p *Postgres) Counts(ctx context.Context, t pipeline.Table) (Counts, error) {
	if err := checkTable(t); err != nil {
		return Counts{}, err
	}
	var c Counts
	if err := p.pool.QueryRow(ctx, countsSQL(t)).Scan(&c.Total, &c.Distinct); err != nil {
		return Counts{}, fmt.Errorf("%w: counts %s: %v", ErrUnavailable, t.Qualified(), err)
	}
	return c, nil
}

// Begin implements Store.
func (p *Postgres) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", ErrUnavailable, err)
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) DeleteDuplicates(ctx context.Context, tbl pipeline.Table) (int64, error) {
	if err := checkTable(tbl); err != nil {
		return 0, err
	}
	tag, err := t.tx.Exec(ctx, deleteSQL(tbl))
	if err != nil {
		return 0, fmt.Errorf("%w: delete from %s: %v", ErrCleanupFailed, tbl.Qualified(), err)
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrCleanupFailed, err)
	}
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
		return err
	}
	return nil
}

// RecordRun implements RunLog against maintenance.dedup_runs.
func (p *Postgres) RecordRun(ctx context.Context, rec RunRecord) error {
	_, err := p.pool.Exec(ctx, `
INSERT INTO maintenance.dedup_runs
  (run_id, started_at, finished_at, mode, groups_found, rows_removed, verified, note)
VALUES ($1, $2, now(), $3, $4, $5, $6, $7)`,
		rec.RunID, rec.StartedAt, rec.Mode, rec.GroupsFound, rec.RowsRemoved, rec.Verified, rec.Note)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// JobTitles implements TitleSource from the staging layer.
func (p *Postgres) JobTitles(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, fmt.Sprintf(`SELECT job_title FROM %s WHERE job_title IS NOT NULL`, pipeline.Staging.Qualified()))
	if err != nil {
		return nil, fmt.Errorf("%w: job titles: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("%w: job titles: %v", ErrUnavailable, err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

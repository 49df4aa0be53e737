package store

import (
	"context"
	"sort"
	"sync"

	"github.com/graemeboulton/job-insights-project/internal/pipeline"
)

// Memory is an offline Store with insertion-ordered physical row ids,
// mirroring the survivor semantics the Postgres store gets from ctid.
// It backs the test suite and lets the tools run without a database.
type Memory struct {
	mu     sync.Mutex
	rows   map[string][]memRow
	nextID int64
	fail   map[string]error
	runs   []RunRecord
	titles []string
}

type memRow struct {
	key pipeline.NaturalKey
	id  int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		rows: map[string][]memRow{},
		fail: map[string]error{},
	}
}

// Insert adds one physical row and returns its physical identifier.
// Identifiers increase strictly in insertion order.
func (m *Memory) Insert(t pipeline.Table, k pipeline.NaturalKey) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.rows[t.Qualified()] = append(m.rows[t.Qualified()], memRow{key: k, id: m.nextID})
	return m.nextID
}

// FailDeletesOn makes every DeleteDuplicates call against t fail with
// err until cleared with a nil err. Used to exercise rollback paths.
func (m *Memory) FailDeletesOn(t pipeline.Table, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, t.Qualified())
		return
	}
	m.fail[t.Qualified()] = err
}

// RowIDs returns the physical identifiers currently stored for key k
// in table t, in insertion order.
func (m *Memory) RowIDs(t pipeline.Table, k pipeline.NaturalKey) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for _, r := range m.rows[t.Qualified()] {
		if r.key == k {
			ids = append(ids, r.id)
		}
	}
	return ids
}

// Snapshot returns every stored key for t in insertion order, one entry
// per physical row. Tests compare snapshots across runs to assert
// idempotence.
func (m *Memory) Snapshot(t pipeline.Table) []pipeline.NaturalKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pipeline.NaturalKey, 0, len(m.rows[t.Qualified()]))
	for _, r := range m.rows[t.Qualified()] {
		out = append(out, r.key)
	}
	return out
}

// DuplicateGroups implements Store.
func (m *Memory) DuplicateGroups(_ context.Context, t pipeline.Table) ([]DuplicateGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[pipeline.NaturalKey]int64{}
	for _, r := range m.rows[t.Qualified()] {
		counts[r.key]++
	}
	var out []DuplicateGroup
	for k, n := range counts {
		if n > 1 {
			out = append(out, DuplicateGroup{Key: k, Count: n})
		}
	}
	// Count descending, then key for a stable order.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key.String() < out[j].Key.String()
	})
	return out, nil
}

// Counts implements Store.
func (m *Memory) Counts(_ context.Context, t pipeline.Table) (Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	distinct := map[pipeline.NaturalKey]struct{}{}
	for _, r := range m.rows[t.Qualified()] {
		distinct[r.key] = struct{}{}
	}
	return Counts{
		Total:    int64(len(m.rows[t.Qualified()])),
		Distinct: int64(len(distinct)),
	}, nil
}

// Begin implements Store. Deletions are staged on the transaction and
// only land on Commit; Rollback discards them all.
func (m *Memory) Begin(_ context.Context) (Tx, error) {
	return &memTx{store: m, staged: map[string]map[int64]struct{}{}}, nil
}

type memTx struct {
	store  *Memory
	staged map[string]map[int64]struct{}
	done   bool
}

func (tx *memTx) DeleteDuplicates(_ context.Context, t pipeline.Table) (int64, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	if err := tx.store.fail[t.Qualified()]; err != nil {
		return 0, err
	}

	// Survivor per key is the row with the greatest physical id.
	survivor := map[pipeline.NaturalKey]int64{}
	for _, r := range tx.store.rows[t.Qualified()] {
		if r.id > survivor[r.key] {
			survivor[r.key] = r.id
		}
	}
	staged := tx.staged[t.Qualified()]
	if staged == nil {
		staged = map[int64]struct{}{}
		tx.staged[t.Qualified()] = staged
	}
	var removed int64
	for _, r := range tx.store.rows[t.Qualified()] {
		if r.id != survivor[r.key] {
			if _, dup := staged[r.id]; !dup {
				staged[r.id] = struct{}{}
				removed++
			}
		}
	}
	return removed, nil
}

func (tx *memTx) Commit(_ context.Context) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	if tx.done {
		return nil
	}
	tx.done = true
	for table, staged := range tx.staged {
		kept := tx.store.rows[table][:0]
		for _, r := range tx.store.rows[table] {
			if _, gone := staged[r.id]; !gone {
				kept = append(kept, r)
			}
		}
		tx.store.rows[table] = kept
	}
	return nil
}

func (tx *memTx) Rollback(_ context.Context) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	tx.done = true
	tx.staged = map[string]map[int64]struct{}{}
	return nil
}

// RecordRun implements RunLog.
func (m *Memory) RecordRun(_ context.Context, rec RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, rec)
	return nil
}

// Runs returns the recorded maintenance runs.
func (m *Memory) Runs() []RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RunRecord(nil), m.runs...)
}

// SetTitles sets the titles returned by JobTitles.
func (m *Memory) SetTitles(titles ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles = append([]string(nil), titles...)
}

// JobTitles implements TitleSource.
func (m *Memory) JobTitles(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.titles...), nil
}

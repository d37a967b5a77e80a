// Package state persists run history and mapping snapshots in SQLite.
// The in-memory mapping table stays the source of truth during a
// build; the store is an audit and inspection surface for `history`
// and `verify`.
package state

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	enginerrors "github.com/alexeyismirnov/deep-crawl/internal/errors"
)

// RunRecord is one finished build.
type RunRecord struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Documents  int
	Rewritten  int
	Unresolved int
	Collisions int
	Outcome    string
}

// Mapping is one normalized-URL to canonical-path assignment captured
// at the end of a run.
type Mapping struct {
	NormalizedURL string
	CanonicalPath string
	Category      string
	Subcategory   string
}

// Store wraps the SQLite database holding runs and mapping snapshots.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	documents INTEGER NOT NULL,
	rewritten INTEGER NOT NULL,
	unresolved INTEGER NOT NULL,
	collisions INTEGER NOT NULL,
	outcome TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS mappings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	normalized_url TEXT NOT NULL,
	canonical_path TEXT NOT NULL,
	category TEXT NOT NULL,
	subcategory TEXT
);
CREATE INDEX IF NOT EXISTS idx_mappings_run ON mappings(run_id);
CREATE INDEX IF NOT EXISTS idx_mappings_url ON mappings(run_id, normalized_url);
`

// Open opens or creates the store at path. Use ":memory:" for an
// in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, enginerrors.StateError("open", err)
	}
	// One connection: serializes writers and keeps an in-memory
	// database from splitting across pool connections.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, enginerrors.StateError("initialize", err)
	}
	return store, nil
}

// RecordRun inserts one finished build into the history.
func (s *Store) RecordRun(ctx context.Context, run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, documents, rewritten, unresolved, collisions, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.Documents, run.Rewritten, run.Unresolved, run.Collisions, run.Outcome,
	)
	if err != nil {
		return enginerrors.StateError("record run", err)
	}
	return nil
}

// SnapshotMappings stores the run's full mapping table in one
// transaction.
func (s *Store) SnapshotMappings(ctx context.Context, runID string, mappings []Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return enginerrors.StateError("snapshot mappings", err)
	}

	for _, m := range mappings {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO mappings (run_id, normalized_url, canonical_path, category, subcategory)
			 VALUES (?, ?, ?, ?, ?)`,
			runID, m.NormalizedURL, m.CanonicalPath, m.Category, m.Subcategory,
		)
		if err != nil {
			_ = tx.Rollback()
			return enginerrors.StateError("snapshot mappings", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return enginerrors.StateError("snapshot mappings", err)
	}
	return nil
}

// RecentRuns returns up to n runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, n int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, documents, rewritten, unresolved, collisions, outcome
		 FROM runs ORDER BY started_at DESC, run_id DESC LIMIT ?`, n)
	if err != nil {
		return nil, enginerrors.StateError("recent runs", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// MappingsForRun returns the full snapshot of one run.
func (s *Store) MappingsForRun(ctx context.Context, runID string) ([]Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT normalized_url, canonical_path, category, subcategory
		 FROM mappings WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, enginerrors.StateError("mappings for run", err)
	}
	defer rows.Close()

	var mappings []Mapping
	for rows.Next() {
		var m Mapping
		var subcategory sql.NullString
		if err := rows.Scan(&m.NormalizedURL, &m.CanonicalPath, &m.Category, &subcategory); err != nil {
			return nil, enginerrors.StateError("mappings for run", err)
		}
		m.Subcategory = subcategory.String
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, enginerrors.StateError("mappings for run", err)
	}
	return mappings, nil
}

// LookupMapping finds one snapshot entry by normalized URL. A miss
// returns nil without error.
func (s *Store) LookupMapping(ctx context.Context, runID, normalizedURL string) (*Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT normalized_url, canonical_path, category, subcategory
		 FROM mappings WHERE run_id = ? AND normalized_url = ?`, runID, normalizedURL)

	var m Mapping
	var subcategory sql.NullString
	err := row.Scan(&m.NormalizedURL, &m.CanonicalPath, &m.Category, &subcategory)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, enginerrors.StateError("lookup mapping", err)
	}
	m.Subcategory = subcategory.String
	return &m, nil
}

// LatestRun returns the most recent run, or nil when the history is
// empty.
func (s *Store) LatestRun(ctx context.Context) (*RunRecord, error) {
	runs, err := s.RecentRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func scanRuns(rows *sql.Rows) ([]RunRecord, error) {
	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var started, finished int64
		err := rows.Scan(&r.RunID, &started, &finished,
			&r.Documents, &r.Rewritten, &r.Unresolved, &r.Collisions, &r.Outcome)
		if err != nil {
			return nil, enginerrors.StateError("scan run", err)
		}
		r.StartedAt = time.Unix(started, 0)
		r.FinishedAt = time.Unix(finished, 0)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, enginerrors.StateError("scan run", err)
	}
	return runs, nil
}

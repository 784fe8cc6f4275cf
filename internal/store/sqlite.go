package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements the DB interface using SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) the database at path. ":memory:" gives an
// ephemeral database for tests.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency between the API and the data loader.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate creates the schema. Safe to run on every startup.
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			namespace TEXT NOT NULL,
			strategy TEXT NOT NULL,
			seed INTEGER NOT NULL DEFAULT 0,
			shops_seen INTEGER NOT NULL DEFAULT 0,
			rerolls INTEGER NOT NULL DEFAULT 0,
			purchases INTEGER NOT NULL DEFAULT 0,
			gold_spent TEXT NOT NULL DEFAULT '0',
			hits_json TEXT NOT NULL DEFAULT '{}',
			stop_reason TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS setdata_cache (
			namespace TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			fetched_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_namespace ON runs(namespace, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_strategy ON runs(strategy, created_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveRun inserts a completed run. A missing ID is generated.
func (s *SQLiteDB) SaveRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	query := `INSERT INTO runs (
		id, session_id, namespace, strategy, seed, shops_seen, rerolls,
		purchases, gold_spent, hits_json, stop_reason
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		run.ID, run.SessionID, run.Namespace, run.Strategy, run.Seed,
		run.ShopsSeen, run.Rerolls, run.Purchases, run.GoldSpent,
		run.HitsJSON, run.StopReason,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun fetches one run by id.
func (s *SQLiteDB) GetRun(id string) (*Run, error) {
	query := `SELECT id, session_id, namespace, strategy, seed, shops_seen,
		rerolls, purchases, gold_spent, hits_json, stop_reason, created_at
		FROM runs WHERE id = ?`

	var run Run
	err := s.db.QueryRow(query, id).Scan(
		&run.ID, &run.SessionID, &run.Namespace, &run.Strategy, &run.Seed,
		&run.ShopsSeen, &run.Rerolls, &run.Purchases, &run.GoldSpent,
		&run.HitsJSON, &run.StopReason, &run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns runs newest first, optionally filtered by namespace and
// strategy.
func (s *SQLiteDB) ListRuns(query RunsQuery) (*RunsList, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 || query.PerPage > 200 {
		query.PerPage = 50
	}

	where := " WHERE 1=1"
	var args []interface{}
	if query.Namespace != "" {
		where += " AND namespace = ?"
		args = append(args, query.Namespace)
	}
	if query.Strategy != "" {
		where += " AND strategy = ?"
		args = append(args, query.Strategy)
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	listQuery := `SELECT id, session_id, namespace, strategy, seed, shops_seen,
		rerolls, purchases, gold_spent, hits_json, stop_reason, created_at
		FROM runs` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	listArgs := append(args, query.PerPage, (query.Page-1)*query.PerPage)

	rows, err := s.db.Query(listQuery, listArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID, &run.SessionID, &run.Namespace, &run.Strategy, &run.Seed,
			&run.ShopsSeen, &run.Rerolls, &run.Purchases, &run.GoldSpent,
			&run.HitsJSON, &run.StopReason, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	totalPages := (total + query.PerPage - 1) / query.PerPage
	return &RunsList{
		Runs:       runs,
		TotalCount: total,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}

// GetSetData returns the cached set-data document for a namespace.
func (s *SQLiteDB) GetSetData(namespace string) ([]byte, time.Time, error) {
	var data []byte
	var fetchedAt time.Time
	err := s.db.QueryRow(
		"SELECT data, fetched_at FROM setdata_cache WHERE namespace = ?", namespace,
	).Scan(&data, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, fmt.Errorf("set data not cached: %s", namespace)
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read set-data cache: %w", err)
	}
	return data, fetchedAt, nil
}

// PutSetData upserts the cached document for a namespace.
func (s *SQLiteDB) PutSetData(namespace string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO setdata_cache (namespace, data, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(namespace) DO UPDATE SET data = excluded.data, fetched_at = excluded.fetched_at`,
		namespace, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write set-data cache: %w", err)
	}
	return nil
}

// Package store provides SQLite persistence for curation snapshots: the
// full assignment vector plus the metadata overlay, keyed by snapshot id.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/spikeforge/curator/internal/clustering"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Snapshot is one saved curation state.
type Snapshot struct {
	ID          string
	SavedAt     time.Time
	Assignments []clustering.ClusterID
	Labels      map[clustering.ClusterID]map[string]string
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// For in-memory databases, use shared cache mode so all connections
		// in the pool see the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		saved_at DATETIME NOT NULL,
		n_items INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_saved ON snapshots(saved_at DESC);

	CREATE TABLE IF NOT EXISTS assignments (
		snapshot_id TEXT NOT NULL,
		item INTEGER NOT NULL,
		cluster INTEGER NOT NULL,
		PRIMARY KEY (snapshot_id, item),
		FOREIGN KEY (snapshot_id) REFERENCES snapshots(id)
	);

	CREATE TABLE IF NOT EXISTS labels (
		snapshot_id TEXT NOT NULL,
		cluster INTEGER NOT NULL,
		field TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (snapshot_id, cluster, field),
		FOREIGN KEY (snapshot_id) REFERENCES snapshots(id)
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveSnapshot stores a full curation state and returns its id. The write
// is transactional: a failed save leaves no partial snapshot behind.
func (s *Store) SaveSnapshot(assignments []clustering.ClusterID, labels map[clustering.ClusterID]map[string]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO snapshots (id, saved_at, n_items) VALUES (?, ?, ?)",
		id, time.Now().UTC(), len(assignments),
	); err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO assignments (snapshot_id, item, cluster) VALUES (?, ?, ?)")
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for item, cluster := range assignments {
		if _, err := stmt.Exec(id, item, int64(cluster)); err != nil {
			return "", fmt.Errorf("insert assignment: %w", err)
		}
	}

	lstmt, err := tx.Prepare("INSERT INTO labels (snapshot_id, cluster, field, value) VALUES (?, ?, ?, ?)")
	if err != nil {
		return "", err
	}
	defer lstmt.Close()
	for cluster, fields := range labels {
		for field, value := range fields {
			if _, err := lstmt.Exec(id, int64(cluster), field, value); err != nil {
				return "", fmt.Errorf("insert label: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// LoadLatest returns the most recent snapshot, or nil when none exists.
func (s *Store) LoadLatest() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap Snapshot
	var nItems int
	err := s.db.QueryRow(
		"SELECT id, saved_at, n_items FROM snapshots ORDER BY saved_at DESC, rowid DESC LIMIT 1",
	).Scan(&snap.ID, &snap.SavedAt, &nItems)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}

	snap.Assignments = make([]clustering.ClusterID, nItems)
	rows, err := s.db.Query(
		"SELECT item, cluster FROM assignments WHERE snapshot_id = ?", snap.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item int
		var cluster int64
		if err := rows.Scan(&item, &cluster); err != nil {
			return nil, err
		}
		if item >= 0 && item < nItems {
			snap.Assignments[item] = clustering.ClusterID(cluster)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	snap.Labels = make(map[clustering.ClusterID]map[string]string)
	lrows, err := s.db.Query(
		"SELECT cluster, field, value FROM labels WHERE snapshot_id = ?", snap.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}
	defer lrows.Close()
	for lrows.Next() {
		var cluster int64
		var field, value string
		if err := lrows.Scan(&cluster, &field, &value); err != nil {
			return nil, err
		}
		id := clustering.ClusterID(cluster)
		if snap.Labels[id] == nil {
			snap.Labels[id] = make(map[string]string)
		}
		snap.Labels[id][field] = value
	}
	if err := lrows.Err(); err != nil {
		return nil, err
	}

	return &snap, nil
}

// SnapshotCount returns the number of stored snapshots.
func (s *Store) SnapshotCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count)
	return count, err
}

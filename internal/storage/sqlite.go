package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/san-kum/cablesim/internal/sim"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps run metadata and traces as JSON payloads in a single
// database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, meta RunMetadata, result *sim.Result) (string, error) {
	db, err := s.getDB()
	if err != nil {
		return "", err
	}

	meta = prepare(meta)
	metaPayload, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	tracePayload, err := json.Marshal(tracesOf(result))
	if err != nil {
		return "", err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, model, timestamp, compartments, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			model = excluded.model,
			timestamp = excluded.timestamp,
			compartments = excluded.compartments,
			payload = excluded.payload
	`, meta.ID, meta.Model, meta.Timestamp.Format(time.RFC3339Nano), meta.Compartments, metaPayload)
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO traces (run_id, payload)
		VALUES (?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			payload = excluded.payload
	`, meta.ID, tracePayload)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]RunMetadata, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM runs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var meta RunMetadata
		if err := json.Unmarshal(payload, &meta); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", id, err)
		}
		runs = append(runs, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortRuns(runs)
	return runs, nil
}

func (s *SQLiteStore) Load(ctx context.Context, runID string) (*RunMetadata, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *SQLiteStore) LoadTraces(ctx context.Context, runID string) (*Traces, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM traces WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var traces Traces
	if err := json.Unmarshal(payload, &traces); err != nil {
		return nil, fmt.Errorf("decode traces %s: %w", runID, err)
	}
	return &traces, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			compartments INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS traces (
			run_id TEXT PRIMARY KEY REFERENCES runs(id),
			payload BLOB NOT NULL
		);
	`)
	return err
}

package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS jobs (
	id         TEXT PRIMARY KEY,
	target     TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	record     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS jobs_created_at ON jobs (created_at DESC, id);`

// SQLiteStore keeps job records in a single SQLite database file.
// The record itself is stored as JSON; the other columns exist for ordering
// and ad hoc queries with the sqlite3 shell.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (and if needed creates) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite job store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create jobs dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; the driver serializes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create jobs table: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, r *Record) error {
	if err := validID(r.ID); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, target, status, created_at, record) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET target = excluded.target, status = excluded.status,
		 created_at = excluded.created_at, record = excluded.record`,
		r.ID, r.Target, string(r.Status), r.CreatedAt.UnixNano(), string(data))
	if err != nil {
		return fmt.Errorf("store job %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := validID(id); err != nil {
		return nil, notFound(id)
	}
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM jobs WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}
	var r Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("parse job %s: %w", id, err)
	}
	return &r, nil
}

// List returns the newest records first. Rows that fail to decode are skipped.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM jobs ORDER BY created_at DESC, id ASC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		var r Record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			continue
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

var _ Store = (*SQLiteStore)(nil)

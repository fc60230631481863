// Package store caches chord analyses in a local SQLite database, keyed by
// the SHA-256 of the audio content so renamed files still hit.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/olivier-w/enchordify/internal/timeline"
)

// Entry is one cached analysis.
type Entry struct {
	Hash      string
	Source    string
	Records   []timeline.Record
	CreatedAt time.Time
}

// Store is an analysis cache backed by SQLite.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	hash       TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	records    TEXT NOT NULL,
	created_at INTEGER NOT NULL
)`

// Open opens or creates the cache at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating analyses table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the analysis stored under hash. found is false when there is none.
func (s *Store) Get(ctx context.Context, hash string) (entry Entry, found bool, err error) {
	var raw string
	var created int64
	row := s.db.QueryRowContext(ctx, `SELECT source, records, created_at FROM analyses WHERE hash = ?`, hash)
	if err := row.Scan(&entry.Source, &raw, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("reading analysis %s: %w", hash, err)
	}
	if err := json.Unmarshal([]byte(raw), &entry.Records); err != nil {
		return Entry{}, false, fmt.Errorf("decoding analysis %s: %w", hash, err)
	}
	entry.Hash = hash
	entry.CreatedAt = time.Unix(created, 0)
	return entry, true, nil
}

// Lookup returns only the records stored under hash.
func (s *Store) Lookup(ctx context.Context, hash string) ([]timeline.Record, bool, error) {
	entry, found, err := s.Get(ctx, hash)
	return entry.Records, found, err
}

// Put stores records under hash, replacing any earlier analysis.
func (s *Store) Put(ctx context.Context, hash, source string, records []timeline.Record) error {
	if records == nil {
		records = []timeline.Record{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO analyses (hash, source, records, created_at) VALUES (?, ?, ?, ?)`,
		hash, source, string(raw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing analysis %s: %w", hash, err)
	}
	return nil
}

// List returns every cached analysis, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hash, source, json_array_length(records), created_at FROM analyses ORDER BY created_at DESC, source`)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var created int64
		if err := rows.Scan(&sum.Hash, &sum.Source, &sum.Count, &created); err != nil {
			return nil, fmt.Errorf("scanning analysis row: %w", err)
		}
		sum.CreatedAt = time.Unix(created, 0)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Summary describes a cached analysis without its records.
type Summary struct {
	Hash      string
	Source    string
	Count     int
	CreatedAt time.Time
}

// Clear removes every cached analysis and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses`)
	if err != nil {
		return 0, fmt.Errorf("clearing analyses: %w", err)
	}
	return res.RowsAffected()
}

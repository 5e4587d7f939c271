// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package cache persists oracle verdict hints and learned name-token
// weights in a local SQLite file so a repeated input never triggers a
// second remote call. Keys are content hashes, so identical rows across
// runs and across files resolve from the store for free.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS verdicts (
	key         TEXT PRIMARY KEY,
	hint        TEXT NOT NULL,
	source      TEXT NOT NULL,
	model       TEXT,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS name_weights (
	token       TEXT PRIMARY KEY,
	weight      REAL NOT NULL,
	source      TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
`

// Hint is the stored outcome of one remote classification. It is a
// verdict hint, not a verdict: the screener still combines it with local
// detector state before deciding the observation.
type Hint struct {
	ContainsPII bool     `json:"contains_pii"`
	Categories  []string `json:"categories,omitempty"`
	Confidence  float64  `json:"confidence"`
}

// Entry is one cached classification, keyed by the content hash of the
// normalized observation text. Entries are never edited in place; a
// rewrite with the same key supersedes the old row.
type Entry struct {
	Key       string
	Hint      Hint
	Source    string
	Model     string
	CreatedAt time.Time
}

// Store is a SQLite-backed verdict and name-weight cache. It is safe for
// concurrent use by the worker pool.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache at path. An unreadable or corrupt file
// is a cold start, not a fatal condition: the file is removed and a fresh
// store is built in its place.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	db, err := open(path)
	if err == nil {
		return &Store{db: db}, nil
	}
	if rmErr := os.Remove(path); rmErr != nil {
		return nil, err
	}
	db, err = open(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// A single connection keeps writers serialized; concurrent workers
	// share this store and SQLite only tolerates one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache: %w", err)
	}
	return db, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get looks up a cached entry. A missing key is a miss, not an error; so
// is a row whose hint no longer decodes, since the caller re-resolves and
// the following Put replaces it.
func (s *Store) Get(key string) (Entry, bool, error) {
	var e Entry
	var hintJSON string
	var model sql.NullString
	var createdStr string
	err := s.db.QueryRow(
		`SELECT key, hint, source, model, created_at FROM verdicts WHERE key = ?`, key,
	).Scan(&e.Key, &hintJSON, &e.Source, &model, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get verdict: %w", err)
	}
	if err := json.Unmarshal([]byte(hintJSON), &e.Hint); err != nil {
		return Entry{}, false, nil
	}
	if model.Valid {
		e.Model = model.String
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return e, true, nil
}

// Put stores an entry, replacing any previous row with the same key.
// Identical content always hashes to the same key, so last-writer-wins is
// harmless.
func (s *Store) Put(e Entry) error {
	hintJSON, err := json.Marshal(e.Hint)
	if err != nil {
		return fmt.Errorf("marshal hint: %w", err)
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err = s.db.Exec(
		`INSERT INTO verdicts (key, hint, source, model, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			hint = excluded.hint,
			source = excluded.source,
			model = excluded.model,
			created_at = excluded.created_at`,
		e.Key, string(hintJSON), e.Source, e.Model, created.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put verdict: %w", err)
	}
	return nil
}

// NameWeights loads every persisted name-token weight. The lexicon merges
// these under its seed and file layers at startup.
func (s *Store) NameWeights() (map[string]float64, error) {
	rows, err := s.db.Query(`SELECT token, weight FROM name_weights`)
	if err != nil {
		return nil, fmt.Errorf("load name weights: %w", err)
	}
	defer rows.Close()

	weights := make(map[string]float64)
	for rows.Next() {
		var token string
		var weight float64
		if err := rows.Scan(&token, &weight); err != nil {
			return nil, fmt.Errorf("scan name weight: %w", err)
		}
		weights[token] = weight
	}
	return weights, rows.Err()
}

// SaveNameWeight records a learned token weight. A token that is already
// present keeps its first weight; relearning never overwrites.
func (s *Store) SaveNameWeight(token string, weight float64, source string) error {
	_, err := s.db.Exec(
		`INSERT INTO name_weights (token, weight, source, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(token) DO NOTHING`,
		token, weight, source, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save name weight: %w", err)
	}
	return nil
}

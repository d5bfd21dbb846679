// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: store/store.go
// Summary: SQLite-backed launch history used to rank launcher entries.

// Package store persists per-entry launch counts so frequently used entries
// rank first in the launcher. The store is explicitly owned state, handed
// to the launcher's constructor by whoever wires the daemon.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS launches (
	entry      TEXT PRIMARY KEY,
	count      INTEGER NOT NULL DEFAULT 0,
	last_used  INTEGER NOT NULL DEFAULT 0
);
`

// History records and serves launch counts.
type History struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates or opens the history database at path, creating parent
// directories as needed.
func Open(path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &History{db: db}, nil
}

// RecordLaunch bumps the launch count for entry.
func (h *History) RecordLaunch(entry string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.db.Exec(`
		INSERT INTO launches (entry, count, last_used) VALUES (?, 1, ?)
		ON CONFLICT(entry) DO UPDATE SET
			count = count + 1,
			last_used = excluded.last_used`,
		entry, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store: record launch: %w", err)
	}
	return nil
}

// Counts returns the launch count for every known entry.
func (h *History) Counts() (map[string]int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rows, err := h.db.Query(`SELECT entry, count FROM launches`)
	if err != nil {
		return nil, fmt.Errorf("store: query counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var entry string
		var count int
		if err := rows.Scan(&entry, &count); err != nil {
			return nil, fmt.Errorf("store: scan counts: %w", err)
		}
		counts[entry] = count
	}
	return counts, rows.Err()
}

// Close releases the database.
func (h *History) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.db.Close()
}

package database

import (
	"fmt"
)

// schema contains the bootstrap DDL. All statements are idempotent so startup
// can run them unconditionally.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS officers (
		id TEXT PRIMARY KEY,
		badge_number TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		rank TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'officer',
		shift_id TEXT,
		created_at TEXT NOT NULL,
		changed TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS punch_events (
		id TEXT PRIMARY KEY,
		officer_id TEXT NOT NULL,
		punch_type TEXT NOT NULL CHECK (punch_type IN ('IN','OUT')),
		timestamp TEXT NOT NULL,
		latitude REAL,
		longitude REAL,
		photo_ref TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_punch_events_officer_ts
		ON punch_events (officer_id, timestamp)`,
	`CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		officer_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'PENDING',
		reviewer_id TEXT,
		reviewer_note TEXT NOT NULL DEFAULT '',
		reviewed_at TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_leave_requests_officer
		ON leave_requests (officer_id, status)`,
	`CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		starts_at TEXT NOT NULL,
		ends_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
}

// EnsureSchema creates any missing tables and indexes.
func (db *DB) EnsureSchema() error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}
	return nil
}

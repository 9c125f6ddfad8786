package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteSchema mirrors the MySQL migrations for the single-file store used by
// local stations and tests.  SQLite has no ENUM, so statuses are TEXT with a
// CHECK constraint.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id         TEXT NOT NULL PRIMARY KEY,
		name       TEXT NOT NULL,
		ends_at    DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS participants (
		id                   TEXT NOT NULL PRIMARY KEY,
		event_id             TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
		display_name         TEXT NOT NULL,
		category             TEXT NOT NULL DEFAULT 'attendee',
		credential_checksum  TEXT NULL,
		credential_issued_at DATETIME NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_event ON participants (event_id)`,
	`CREATE TABLE IF NOT EXISTS checkin_records (
		participant_ref    TEXT NOT NULL,
		event_ref          TEXT NOT NULL,
		status             TEXT NOT NULL DEFAULT 'not_checked_in'
			CHECK (status IN ('not_checked_in','checked_in','checked_out','no_show','cancelled')),
		method             TEXT NULL CHECK (method IS NULL OR method IN ('scan','manual')),
		checked_in_at      DATETIME NULL,
		checked_out_at     DATETIME NULL,
		badge_printed      BOOLEAN NOT NULL DEFAULT 0,
		materials_provided BOOLEAN NOT NULL DEFAULT 0,
		updated_at         DATETIME NOT NULL,
		PRIMARY KEY (participant_ref, event_ref)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_checkin_records_event_status ON checkin_records (event_ref, status)`,
	`CREATE TABLE IF NOT EXISTS operators (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'STAFF' CHECK (role IN ('ADMIN','STAFF')),
		is_active     BOOLEAN NOT NULL DEFAULT 1,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// OpenSQLite opens (creating if needed) a SQLite database at path and applies
// the schema.  Use ":memory:" for a throwaway database; the pool is then
// pinned to one connection so every caller sees the same data.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY
	// and keeps in-memory databases shared.
	db.SetMaxOpenConns(1)
	if err := MigrateSQLite(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// MigrateSQLite applies the SQLite schema.  It is idempotent.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}

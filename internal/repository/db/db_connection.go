package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// One connection serialises writers; the store's transactions rely on it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

const schemaClimateReadings = `
CREATE TABLE IF NOT EXISTS climate_readings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    zone_data TEXT NOT NULL DEFAULT '[]',
    selected_mode TEXT NOT NULL,
    selected_zone INTEGER NOT NULL DEFAULT 0,
    operating_status TEXT NOT NULL,
    target_temperature REAL NOT NULL,
    sleep BOOLEAN NOT NULL DEFAULT 0,
    stored_program INTEGER NOT NULL DEFAULT 0,
    archive BOOLEAN NOT NULL DEFAULT 0,
    archive_span INTEGER NOT NULL DEFAULT 1 CHECK (archive_span >= 1),
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const indexClimateArchive = `
CREATE INDEX IF NOT EXISTS idx_climate_readings_archive ON climate_readings (archive, id);
`

const schemaClimatePrograms = `
CREATE TABLE IF NOT EXISTS climate_programs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    program TEXT NOT NULL,
    mode TEXT NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

// At most one row may carry is_active = 1.
const indexSingleActiveProgram = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_climate_programs_single_active
    ON climate_programs (is_active) WHERE is_active = 1;
`

const schemaGarageDoors = `
CREATE TABLE IF NOT EXISTS garage_doors (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    in_motion BOOLEAN NOT NULL DEFAULT 0,
    motion_direction TEXT NOT NULL DEFAULT 'none',
    position TEXT NOT NULL DEFAULT 'closed',
    target_position TEXT NOT NULL DEFAULT 'closed',
    updated_at TIMESTAMP NOT NULL
);
`

const schemaVideos = `
CREATE TABLE IF NOT EXISTS videos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    filename TEXT UNIQUE NOT NULL,
    location TEXT NOT NULL,
    start_at TIMESTAMP NOT NULL,
    end_at TIMESTAMP NOT NULL,
    duration REAL NOT NULL DEFAULT 0,
    trigger_event TEXT NOT NULL,
    starred BOOLEAN NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);
`

const schemaClimateEvents = `
CREATE TABLE IF NOT EXISTS climate_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    admin BOOLEAN NOT NULL DEFAULT 0
);
`

// EnsureSchema creates every table and index in one transaction.
func EnsureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaClimateReadings,
		indexClimateArchive,
		schemaClimatePrograms,
		indexSingleActiveProgram,
		schemaGarageDoors,
		schemaVideos,
		schemaClimateEvents,
		schemaUsers,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

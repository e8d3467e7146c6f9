// Package storage persists scan reports in SQLite so past runs can be listed
// and compared.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is written to pydeps_metadata on schema creation.
const SchemaVersion = "1"

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Open opens (creating if needed) the history database at path with foreign
// keys enabled and the schema in place.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// CreateSchema creates all tables and indexes if they do not exist yet.
// All statements run in one transaction.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"scans", createScansTable},
		{"scan_files", createScanFilesTable},
		{"scan_imports", createScanImportsTable},
		{"scan_packages", createScanPackagesTable},
		{"pydeps_metadata", createMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(timeFormat)
	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO pydeps_metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)`,
		SchemaVersion, now,
	); err != nil {
		return fmt.Errorf("failed to bootstrap metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}

	return nil
}

// GetSchemaVersion returns the stored schema version, or "0" for a database
// without schema.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='pydeps_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check pydeps_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM pydeps_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in pydeps_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

const createScansTable = `
CREATE TABLE IF NOT EXISTS scans (
    id TEXT PRIMARY KEY,                         -- UUID from the report
    root TEXT NOT NULL,                          -- Absolute project root or script path
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    files INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    cached INTEGER NOT NULL DEFAULT 0,
    bytes INTEGER NOT NULL DEFAULT 0
)
`

const createScanFilesTable = `
CREATE TABLE IF NOT EXISTS scan_files (
    scan_id TEXT NOT NULL,
    file_path TEXT NOT NULL,
    failure TEXT NOT NULL DEFAULT '',            -- unreadable, malformed, unexpected or empty
    cached INTEGER NOT NULL DEFAULT 0,
    size_bytes INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (scan_id, file_path),
    FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
)
`

const createScanImportsTable = `
CREATE TABLE IF NOT EXISTS scan_imports (
    scan_id TEXT NOT NULL,
    file_path TEXT NOT NULL,
    name TEXT NOT NULL,                          -- Top-level module name
    PRIMARY KEY (scan_id, file_path, name),
    FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
)
`

const createScanPackagesTable = `
CREATE TABLE IF NOT EXISTS scan_packages (
    scan_id TEXT NOT NULL,
    name TEXT NOT NULL,
    category TEXT NOT NULL,                      -- package, stdlib or local
    PRIMARY KEY (scan_id, name),
    FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
)
`

const createMetadataTable = `
CREATE TABLE IF NOT EXISTS pydeps_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_scans_root_started ON scans(root, started_at)",
	"CREATE INDEX IF NOT EXISTS idx_scan_imports_name ON scan_imports(name)",
	"CREATE INDEX IF NOT EXISTS idx_scan_packages_name ON scan_packages(name)",
}

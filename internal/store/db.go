package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite run ledger: runs, their errors, stage progress, logs,
// cluster labels, master rows and output files.
type Store struct {
	db *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		config TEXT,
		status TEXT,
		report TEXT,
		summary TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE IF NOT EXISTS run_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		stage TEXT,
		error_type TEXT,
		error_message TEXT,
		source TEXT,
		retryable INTEGER,
		created_at DATETIME
	);`,
	`CREATE TABLE IF NOT EXISTS stage_progress (
		run_id TEXT,
		stage TEXT,
		status TEXT,
		start_time DATETIME,
		end_time DATETIME,
		records_processed INTEGER,
		error_count INTEGER,
		PRIMARY KEY (run_id, stage)
	);`,
	`CREATE TABLE IF NOT EXISTS pipeline_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		stage TEXT,
		level TEXT,
		message TEXT,
		details TEXT,
		created_at DATETIME
	);`,
	`CREATE TABLE IF NOT EXISTS cluster_labels (
		run_id TEXT,
		cluster_id INTEGER,
		label TEXT,
		origin TEXT,
		members INTEGER,
		top_terms TEXT,
		PRIMARY KEY (run_id, cluster_id)
	);`,
	`CREATE TABLE IF NOT EXISTS master_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		title TEXT,
		standardized_title TEXT,
		company TEXT,
		country TEXT,
		region TEXT,
		raw_salary TEXT,
		salary_min REAL,
		salary_max REAL,
		currency TEXT,
		period TEXT,
		contract_type TEXT,
		category TEXT,
		source_platform TEXT,
		source_kind TEXT,
		listing_url TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_master_records_run ON master_records (run_id);`,
	`CREATE TABLE IF NOT EXISTS output_files (
		run_id TEXT,
		name TEXT,
		path TEXT,
		kind TEXT,
		size INTEGER,
		created_at DATETIME,
		PRIMARY KEY (run_id, name)
	);`,
}

// Open connects to the SQLite database at dbPath and creates missing tables.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// sqlite handles one writer at a time
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the connection.
func (s *Store) Close() error {
	return s.db.Close()
}

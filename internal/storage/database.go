package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// Write transactions take the lock up front (_txlock=immediate) so concurrent
// writers queue on the busy timeout instead of failing with SQLITE_BUSY on upgrade.
func New(path string) (*sql.DB, error) {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", "10000")
	params.Set("_txlock", "immediate")
	params.Set("_journal_mode", "WAL")

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, params.Encode()))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
// Timestamps are stored as Unix nanoseconds.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			content TEXT NOT NULL,
			type TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			character_count INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at, id);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_name ON documents(name, id);`,
		`CREATE TABLE IF NOT EXISTS pdfs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			system TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT '',
			page_count INTEGER NOT NULL DEFAULT 0,
			origin_path TEXT NOT NULL DEFAULT '',
			file_size INTEGER NOT NULL DEFAULT 0,
			chunk_count INTEGER NOT NULL DEFAULT 0,
			tags TEXT NOT NULL DEFAULT '[]',
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_pdfs_status_created ON pdfs(status, created_at, id);`,
		`CREATE TABLE IF NOT EXISTS tag_values (
			owner_kind TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (owner_kind, owner_id, name, value)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tag_values_lookup ON tag_values(owner_kind, name, value);`,
		`CREATE TABLE IF NOT EXISTS ingest_jobs (
			id TEXT PRIMARY KEY,
			pdf_id TEXT NOT NULL,
			origin_path TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			chunk_count INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ingest_jobs_pdf ON ingest_jobs(pdf_id);`,
		`CREATE TABLE IF NOT EXISTS ingest_job_events (
			job_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			state TEXT NOT NULL,
			at INTEGER NOT NULL,
			PRIMARY KEY (job_id, seq),
			FOREIGN KEY (job_id) REFERENCES ingest_jobs(id) ON DELETE CASCADE
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

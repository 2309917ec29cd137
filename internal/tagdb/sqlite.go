// Package tagdb implements the tag index: a small persistent key-value
// table mapping a user-chosen label to a (directory, archive) pair, with a
// secondary scan by directory.
package tagdb

import (
	"database/sql"
	"errors"
	"fmt"

	"cpt-go/internal/cpt"
	"cpt-go/internal/tagdb/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteIndex implements cpt.TagIndex on a SQLite database.
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex opens (and if necessary creates and migrates) the tag index
// at path. path can be ":memory:" for an in-memory database.
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating tag index: %w", err)
	}
	return &SQLiteIndex{db: db}, nil
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tests that need a raw connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tag index: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return db, nil
}

// Set upserts a tag record. Last write wins on tag reuse. The upsert is a
// single statement, atomic with respect to a single writer.
func (s *SQLiteIndex) Set(rec cpt.TagRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO tags (tag, directory, archive_path, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(tag) DO UPDATE SET
			directory = excluded.directory,
			archive_path = excluded.archive_path,
			created_at = excluded.created_at`,
		rec.Tag, rec.Directory, rec.ArchivePath, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting tag %s: %w", rec.Tag, err)
	}
	return nil
}

// Resolve looks a tag up by exact name.
func (s *SQLiteIndex) Resolve(tag string) (cpt.TagRecord, error) {
	row := s.db.QueryRow(`
		SELECT tag, directory, archive_path, created_at
		FROM tags WHERE tag = ?`, tag)

	var rec cpt.TagRecord
	err := row.Scan(&rec.Tag, &rec.Directory, &rec.ArchivePath, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cpt.TagRecord{}, &cpt.TagNotFoundError{Tag: tag}
		}
		return cpt.TagRecord{}, fmt.Errorf("resolving tag %s: %w", tag, err)
	}
	return rec, nil
}

// ForDirectory returns every record for directory, unfiltered. Entries whose
// archive has vanished stay in the index; filtering is the caller's job.
func (s *SQLiteIndex) ForDirectory(directory string) ([]cpt.TagRecord, error) {
	rows, err := s.db.Query(`
		SELECT tag, directory, archive_path, created_at
		FROM tags WHERE directory = ?
		ORDER BY created_at DESC`, directory)
	if err != nil {
		return nil, fmt.Errorf("scanning tags for %s: %w", directory, err)
	}
	defer rows.Close()

	var recs []cpt.TagRecord
	for rows.Next() {
		var rec cpt.TagRecord
		if err := rows.Scan(&rec.Tag, &rec.Directory, &rec.ArchivePath, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tag row: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scanning tags for %s: %w", directory, err)
	}
	return recs, nil
}

// Close closes the underlying database.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// Compile-time check that SQLiteIndex implements cpt.TagIndex.
var _ cpt.TagIndex = (*SQLiteIndex)(nil)

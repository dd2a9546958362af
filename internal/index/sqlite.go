// Package index persists scanned file metadata in SQLite and serves the
// grouping queries the detection pipeline is built on.
package index

import (
	"database/sql"
	"fmt"
	"strings"

	"drivedup/internal/dedup"
	"drivedup/internal/index/migrations"
	"drivedup/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// maxBindVars stays under SQLite's default host-parameter limit.
const maxBindVars = 500

// SQLiteIndex implements the file index and run log using SQLite.
type SQLiteIndex struct {
	db   *sql.DB
	path string
}

// NewSQLiteIndex opens (and migrates) an index database.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating index database: %w", err)
	}

	return &SQLiteIndex{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tools and tests that need a raw configured connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Foreign keys default to OFF in SQLite for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Upsert inserts or replaces records keyed by file ID inside one transaction.
func (s *SQLiteIndex) Upsert(records []model.FileRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO files
			(id, name, size, md5, mime_type, created_at, modified_at, path, trashed, owned_by_me)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(r.ID, r.Name, r.Size, r.MD5, r.MIMEType,
			r.CreatedAt, r.ModifiedAt, r.Path, r.Trashed, r.OwnedByMe)
		if err != nil {
			return fmt.Errorf("upserting file %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// CountActive returns the number of non-trashed records.
func (s *SQLiteIndex) CountActive() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM files WHERE trashed = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting files: %w", err)
	}
	return count, nil
}

// GroupBySize returns the member IDs for every size at or above minSize that
// is shared by two or more non-trashed, checksum-bearing records.
func (s *SQLiteIndex) GroupBySize(minSize int64) (map[int64][]string, error) {
	rows, err := s.db.Query(`
		SELECT size, id FROM files
		WHERE trashed = 0 AND md5 != '' AND size >= ?
		  AND size IN (
			SELECT size FROM files
			WHERE trashed = 0 AND md5 != '' AND size >= ?
			GROUP BY size HAVING COUNT(*) > 1
		  )
		ORDER BY size, id`, minSize, minSize)
	if err != nil {
		return nil, fmt.Errorf("grouping by size: %w", err)
	}
	defer rows.Close()

	groups := make(map[int64][]string)
	for rows.Next() {
		var size int64
		var id string
		if err := rows.Scan(&size, &id); err != nil {
			return nil, fmt.Errorf("scanning size group row: %w", err)
		}
		groups[size] = append(groups[size], id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading size groups: %w", err)
	}
	return groups, nil
}

// GroupByChecksum groups the given candidate checksums by exact match,
// returning only checksums shared by two or more non-trashed records.
func (s *SQLiteIndex) GroupByChecksum(md5s []string) (map[string][]string, error) {
	groups := make(map[string][]string)

	for _, chunk := range chunkStrings(dedupe(md5s), maxBindVars) {
		rows, err := s.db.Query(`
			SELECT md5, id FROM files
			WHERE trashed = 0 AND md5 IN (`+placeholders(len(chunk))+`)
			ORDER BY md5, id`, toAnySlice(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("grouping by checksum: %w", err)
		}

		for rows.Next() {
			var md5, id string
			if err := rows.Scan(&md5, &id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning checksum group row: %w", err)
			}
			groups[md5] = append(groups[md5], id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("reading checksum groups: %w", err)
		}
		rows.Close()
	}

	for md5, ids := range groups {
		if len(ids) < 2 {
			delete(groups, md5)
		}
	}
	return groups, nil
}

// GetByIDs returns the non-trashed records for the given file IDs.
func (s *SQLiteIndex) GetByIDs(ids []string) ([]model.FileRecord, error) {
	var out []model.FileRecord

	for _, chunk := range chunkStrings(ids, maxBindVars) {
		rows, err := s.db.Query(`
			SELECT id, name, size, md5, mime_type, created_at, modified_at, path, trashed, owned_by_me
			FROM files WHERE trashed = 0 AND id IN (`+placeholders(len(chunk))+`)
			ORDER BY id`, toAnySlice(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("fetching files by ID: %w", err)
		}

		for rows.Next() {
			r, err := scanFileRecord(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, r)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("reading files: %w", err)
		}
		rows.Close()
	}

	return out, nil
}

// Clear removes all file records.
func (s *SQLiteIndex) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM files`); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	return nil
}

// Run tracking

// CreateRun records the start of an operation and returns its ID.
func (s *SQLiteIndex) CreateRun(operation string, parameters string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO runs (started_at, operation, parameters, status)
		VALUES (CURRENT_TIMESTAMP, ?, ?, 'running')`, operation, parameters)
	if err != nil {
		return 0, fmt.Errorf("creating run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run ID: %w", err)
	}
	return id, nil
}

// FinishRun marks the run finished with the given status.
func (s *SQLiteIndex) FinishRun(id int64, status string) error {
	_, err := s.db.Exec(`
		UPDATE runs SET finished_at = CURRENT_TIMESTAMP, status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteIndex) ListRuns(limit int) ([]model.Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, operation, parameters, status
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var run model.Run
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.StartedAt, &finished, &run.Operation, &run.Parameters, &run.Status); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading runs: %w", err)
	}
	return runs, nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteIndex) Path() string { return s.path }

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteIndex) CheckMigrations() error {
	return migrations.CheckStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteIndex) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func scanFileRecord(rows *sql.Rows) (model.FileRecord, error) {
	var r model.FileRecord
	var created, modified sql.NullTime
	err := rows.Scan(&r.ID, &r.Name, &r.Size, &r.MD5, &r.MIMEType,
		&created, &modified, &r.Path, &r.Trashed, &r.OwnedByMe)
	if err != nil {
		return model.FileRecord{}, fmt.Errorf("scanning file row: %w", err)
	}
	if created.Valid {
		r.CreatedAt = created.Time
	}
	if modified.Valid {
		r.ModifiedAt = modified.Time
	}
	return r, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func chunkStrings(values []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		chunks = append(chunks, values[start:end])
	}
	return chunks
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Compile-time check that SQLiteIndex implements the full store surface.
var _ dedup.Store = (*SQLiteIndex)(nil)

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite. It backs the
// client-local cache of assessment sessions so the engine can show
// history while the remote store is unreachable.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite snapshot store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessment_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		bucket DATETIME NOT NULL,
		session TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, bucket)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_user_id ON assessment_snapshots(user_id);
	CREATE INDEX IF NOT EXISTS idx_snapshots_bucket ON assessment_snapshots(bucket);
	`

	_, err := db.Exec(schema)
	return err
}

// Save stores or updates the snapshot for its (user, bucket) pair.
func (s *SQLiteStore) Save(ctx context.Context, snapshot *Snapshot) error {
	now := time.Now()
	snapshot.Bucket = snapshot.Bucket.Truncate(time.Hour)

	sessionJSON, err := json.Marshal(snapshot.Session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	var existingID int64
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM assessment_snapshots WHERE user_id = ? AND bucket = ?",
		snapshot.UserID, snapshot.Bucket,
	).Scan(&existingID)

	if err == nil {
		snapshot.ID = existingID
		snapshot.UpdatedAt = now
		_, err = s.db.ExecContext(ctx,
			"UPDATE assessment_snapshots SET session = ?, updated_at = ? WHERE id = ?",
			string(sessionJSON), now, existingID,
		)
		if err != nil {
			return fmt.Errorf("failed to update snapshot: %w", err)
		}
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check existing snapshot: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO assessment_snapshots (user_id, bucket, session, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		snapshot.UserID, snapshot.Bucket, string(sessionJSON), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	snapshot.ID, _ = result.LastInsertId()
	snapshot.CreatedAt = now
	snapshot.UpdatedAt = now
	return nil
}

// Latest retrieves the newest snapshot for a user.
func (s *SQLiteStore) Latest(ctx context.Context, userID string) (*Snapshot, error) {
	query := `
		SELECT id, user_id, bucket, session, created_at, updated_at
		FROM assessment_snapshots
		WHERE user_id = ?
		ORDER BY bucket DESC
		LIMIT 1
	`

	snapshot, err := scanSnapshot(s.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return snapshot, nil
}

// History returns a user's snapshots newest-first with pagination.
func (s *SQLiteStore) History(ctx context.Context, userID string, limit, offset int) ([]*Snapshot, error) {
	query := `
		SELECT id, user_id, bucket, session, created_at, updated_at
		FROM assessment_snapshots
		WHERE user_id = ?
		ORDER BY bucket DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var result []*Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, snapshot)
	}

	return result, rows.Err()
}

// Count returns the total number of stored snapshots.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assessment_snapshots").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// Delete removes a snapshot by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM assessment_snapshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// maxExportLimit caps the number of entries exported at once.
const maxExportLimit = 1000000

// ExportJSON exports all snapshots to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	query := `
		SELECT id, user_id, bucket, session, created_at, updated_at
		FROM assessment_snapshots
		ORDER BY bucket DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, maxExportLimit)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var all []*Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		all = append(all, snapshot)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	export := &SnapshotExport{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Snapshots:  all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ImportJSON imports snapshots from a JSON reader. Existing (user, bucket)
// pairs are skipped rather than overwritten.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	var export SnapshotExport
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, snapshot := range export.Snapshots {
		var existingID int64
		err := s.db.QueryRowContext(ctx,
			"SELECT id FROM assessment_snapshots WHERE user_id = ? AND bucket = ?",
			snapshot.UserID, snapshot.Bucket.Truncate(time.Hour),
		).Scan(&existingID)

		if err == nil {
			skipped++
			continue
		}
		if err != sql.ErrNoRows {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}

		snapshot.ID = 0
		if err := s.Save(ctx, snapshot); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"

	"github.com/healthlens/risk-engine/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL snapshot store.
// It expects the schema to already exist (created via migrations or Init).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL snapshot store from a
// connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Init creates the snapshot table if it does not exist.
func (s *PostgresStore) Init(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS assessment_snapshots (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			bucket TIMESTAMPTZ NOT NULL,
			session JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(user_id, bucket)
		)`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save stores or updates the snapshot for its (user, bucket) pair.
func (s *PostgresStore) Save(ctx context.Context, snapshot *Snapshot) error {
	now := time.Now()
	snapshot.Bucket = snapshot.Bucket.Truncate(time.Hour)

	sessionJSON, err := json.Marshal(snapshot.Session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	query := `
		INSERT INTO assessment_snapshots (
			user_id, bucket, session, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, bucket) DO UPDATE SET
			session = EXCLUDED.session,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err = s.db.QueryRowContext(ctx, query,
		snapshot.UserID,
		snapshot.Bucket,
		sessionJSON,
		now,
		now,
	).Scan(&snapshot.ID, &snapshot.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	snapshot.UpdatedAt = now
	return nil
}

// Latest retrieves the newest snapshot for a user.
func (s *PostgresStore) Latest(ctx context.Context, userID string) (*Snapshot, error) {
	query := `
		SELECT id, user_id, bucket, session, created_at, updated_at
		FROM assessment_snapshots
		WHERE user_id = $1
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
func (s *PostgresStore) History(ctx context.Context, userID string, limit, offset int) ([]*Snapshot, error) {
	query := `
		SELECT id, user_id, bucket, session, created_at, updated_at
		FROM assessment_snapshots
		WHERE user_id = $1
		ORDER BY bucket DESC
		LIMIT $2 OFFSET $3
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
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assessment_snapshots").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// Delete removes a snapshot by ID.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM assessment_snapshots WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// pgMaxExportLimit caps the number of entries exported at once.
const pgMaxExportLimit = 1000000

// ExportJSON exports all snapshots to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	query := `
		SELECT id, user_id, bucket, session, created_at, updated_at
		FROM assessment_snapshots
		ORDER BY bucket DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, pgMaxExportLimit)
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
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	var export SnapshotExport
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, snapshot := range export.Snapshots {
		var existingID int64
		err := s.db.QueryRowContext(ctx,
			"SELECT id FROM assessment_snapshots WHERE user_id = $1 AND bucket = $2",
			snapshot.UserID, snapshot.Bucket.Truncate(time.Hour),
		).Scan(&existingID)

		if err == nil {
			skipped++
			continue
		}
		if err != sql.ErrNoRows {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}

		if err := s.Save(ctx, snapshot); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanSnapshot scans a row into a Snapshot, decoding the session JSON.
func scanSnapshot(sc scanner) (*Snapshot, error) {
	snapshot := &Snapshot{}
	var sessionJSON []byte

	err := sc.Scan(
		&snapshot.ID, &snapshot.UserID, &snapshot.Bucket,
		&sessionJSON, &snapshot.CreatedAt, &snapshot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	session := &domain.AssessmentSession{}
	if err := json.Unmarshal(sessionJSON, session); err != nil {
		return nil, fmt.Errorf("corrupt session payload: %w", err)
	}
	snapshot.Session = session

	return snapshot, nil
}

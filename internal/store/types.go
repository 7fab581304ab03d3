// Package store provides durable snapshot storage for assessment
// sessions. The same Store interface backs both the client-local SQLite
// database and the remote Postgres snapshot table, which is what lets the
// reconciler treat them as interchangeable sources.
package store

import (
	"context"
	"io"
	"time"

	"github.com/healthlens/risk-engine/internal/domain"
)

// Snapshot is one stored assessment session, keyed by user and hour
// bucket. Saving a snapshot for an existing (user, bucket) pair replaces
// the stored session with the newer one.
type Snapshot struct {
	ID        int64                     `json:"id,omitempty"`
	UserID    string                    `json:"user_id"`
	Bucket    time.Time                 `json:"bucket"` // session timestamp truncated to the hour
	Session   *domain.AssessmentSession `json:"session"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// Store defines the interface for snapshot storage operations.
type Store interface {
	// Save stores or updates the snapshot for its (user, bucket) pair.
	Save(ctx context.Context, snapshot *Snapshot) error

	// Latest retrieves the newest snapshot for a user, or nil if none.
	Latest(ctx context.Context, userID string) (*Snapshot, error)

	// History returns a user's snapshots newest-first with pagination.
	History(ctx context.Context, userID string, limit, offset int) ([]*Snapshot, error)

	// Count returns the total number of stored snapshots.
	Count(ctx context.Context) (int64, error)

	// Delete removes a snapshot by ID.
	Delete(ctx context.Context, id int64) error

	// ExportJSON exports all snapshots to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports snapshots from a JSON reader.
	// Returns the number of imported and skipped entries.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// SnapshotExport represents the JSON export format.
type SnapshotExport struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	Count      int         `json:"count"`
	Snapshots  []*Snapshot `json:"snapshots"`
}

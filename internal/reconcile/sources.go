package reconcile

import (
	"context"

	"github.com/healthlens/risk-engine/internal/cache"
	"github.com/healthlens/risk-engine/internal/domain"
	"github.com/healthlens/risk-engine/internal/repository"
	"github.com/healthlens/risk-engine/internal/store"
)

// CacheSource reads the client-local session cache: the latest entry
// plus the bounded history list. Labs travel inside the sessions.
type CacheSource struct {
	cache *cache.SnapshotCache
}

// NewCacheSource wraps the snapshot cache as a reconciliation source.
func NewCacheSource(c *cache.SnapshotCache) *CacheSource {
	return &CacheSource{cache: c}
}

func (s *CacheSource) Name() string { return "local-cache" }

func (s *CacheSource) Load(ctx context.Context, userID string) ([]*domain.AssessmentSession, []domain.LabObservation, error) {
	sessions, err := s.cache.History(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	// The latest entry may be newer than the history head when a write
	// partially succeeded; include it and let the merge deduplicate.
	latest, err := s.cache.Latest(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if latest != nil {
		sessions = append([]*domain.AssessmentSession{latest}, sessions...)
	}

	return sessions, nil, nil
}

// StoreSource reads the durable snapshot store.
type StoreSource struct {
	store store.Store
	limit int
}

// NewStoreSource wraps a snapshot store as a reconciliation source.
// The limit bounds how many snapshots one reconciliation reads.
func NewStoreSource(st store.Store, limit int) *StoreSource {
	if limit <= 0 {
		limit = 200
	}
	return &StoreSource{store: st, limit: limit}
}

func (s *StoreSource) Name() string { return "snapshot-store" }

func (s *StoreSource) Load(ctx context.Context, userID string) ([]*domain.AssessmentSession, []domain.LabObservation, error) {
	snapshots, err := s.store.History(ctx, userID, s.limit, 0)
	if err != nil {
		return nil, nil, err
	}

	sessions := make([]*domain.AssessmentSession, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap.Session != nil {
			sessions = append(sessions, snap.Session)
		}
	}
	return sessions, nil, nil
}

// RepositorySource reads the remote assessment store: per-prediction
// session rows plus the user's lab observations.
type RepositorySource struct {
	repo *repository.AssessmentRepository
}

// NewRepositorySource wraps the remote repository as a reconciliation
// source.
func NewRepositorySource(repo *repository.AssessmentRepository) *RepositorySource {
	return &RepositorySource{repo: repo}
}

func (s *RepositorySource) Name() string { return "remote" }

func (s *RepositorySource) Load(ctx context.Context, userID string) ([]*domain.AssessmentSession, []domain.LabObservation, error) {
	sessions, err := s.repo.LoadSessions(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	labs, err := s.repo.ListLabObservations(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	return sessions, labs, nil
}

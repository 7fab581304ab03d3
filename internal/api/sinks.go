package api

import (
	"context"

	"github.com/healthlens/risk-engine/internal/cache"
	"github.com/healthlens/risk-engine/internal/domain"
	"github.com/healthlens/risk-engine/internal/repository"
	"github.com/healthlens/risk-engine/internal/store"
)

// AssessmentSink persists a completed assessment. Writes are
// best-effort: a sink failure is logged and never fails the request.
type AssessmentSink interface {
	Name() string
	Persist(ctx context.Context, assessment *domain.Assessment, labs []domain.LabObservation) error
}

// CacheSink writes the session into the client-local cache.
type CacheSink struct {
	cache *cache.SnapshotCache
}

// NewCacheSink wraps the snapshot cache as a sink.
func NewCacheSink(c *cache.SnapshotCache) *CacheSink {
	return &CacheSink{cache: c}
}

func (s *CacheSink) Name() string { return "local-cache" }

func (s *CacheSink) Persist(ctx context.Context, assessment *domain.Assessment, labs []domain.LabObservation) error {
	session := assessment.Session()
	session.Labs = labs
	return s.cache.SaveSession(ctx, session)
}

// StoreSink writes the session snapshot into the durable store.
type StoreSink struct {
	store store.Store
}

// NewStoreSink wraps a snapshot store as a sink.
func NewStoreSink(st store.Store) *StoreSink {
	return &StoreSink{store: st}
}

func (s *StoreSink) Name() string { return "snapshot-store" }

func (s *StoreSink) Persist(ctx context.Context, assessment *domain.Assessment, labs []domain.LabObservation) error {
	session := assessment.Session()
	session.Labs = labs
	return s.store.Save(ctx, &store.Snapshot{
		UserID:  assessment.UserID,
		Bucket:  assessment.GeneratedAt,
		Session: session,
	})
}

// RepositorySink writes the profile, lab observations, and prediction
// rows into the remote store.
type RepositorySink struct {
	repo *repository.AssessmentRepository
}

// NewRepositorySink wraps the remote repository as a sink.
func NewRepositorySink(repo *repository.AssessmentRepository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) Name() string { return "remote" }

func (s *RepositorySink) Persist(ctx context.Context, assessment *domain.Assessment, labs []domain.LabObservation) error {
	if _, err := s.repo.SaveProfile(ctx, assessment.Profile); err != nil {
		return err
	}
	if len(labs) > 0 {
		if err := s.repo.SaveLabObservations(ctx, assessment.UserID, labs); err != nil {
			return err
		}
	}
	return s.repo.SaveAssessment(ctx, assessment)
}

// Package reconcile merges assessment histories from the client-local
// cache and the remote store into one canonical, ordered session list.
package reconcile

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/healthlens/risk-engine/internal/domain"
)

// Source is one origin of assessment sessions and lab observations for
// a user. A source may be slow, partially populated, or down; the
// reconciler proceeds with whatever loads.
type Source interface {
	Name() string
	Load(ctx context.Context, userID string) ([]*domain.AssessmentSession, []domain.LabObservation, error)
}

// MergeStats counts records discarded while reconciling. Identical
// records arriving from overlapping sources are expected and never
// counted.
type MergeStats struct {
	// Superseded counts per-disease predictions replaced by a newer one.
	Superseded int `json:"superseded"`
	// DuplicateLabs counts lab observations removed by deduplication.
	DuplicateLabs int `json:"duplicate_labs"`
	// Unparseable counts session records discarded as unusable.
	Unparseable int `json:"unparseable"`
}

// Result is the reconciled view of a user's assessment history.
type Result struct {
	Sessions []*domain.AssessmentSession
	Labs     []domain.LabObservation
	Stats    MergeStats
}

// Reconciler merges sessions across the configured sources.
type Reconciler struct {
	sources []Source
	log     *logrus.Logger
}

// NewReconciler creates a reconciler over the given sources.
func NewReconciler(log *logrus.Logger, sources ...Source) *Reconciler {
	return &Reconciler{sources: sources, log: log}
}

// Reconcile loads every source and merges the results. A failing source
// is logged and skipped; the error return is a SourceUnavailableError
// only when every source fails.
func (r *Reconciler) Reconcile(ctx context.Context, userID string) (*Result, error) {
	var sessions []*domain.AssessmentSession
	var labs []domain.LabObservation

	failures := make(map[string]error)
	for _, src := range r.sources {
		srcSessions, srcLabs, err := src.Load(ctx, userID)
		if err != nil {
			failures[src.Name()] = err
			r.log.WithFields(logrus.Fields{
				"source":  src.Name(),
				"user_id": userID,
				"error":   err,
			}).Warn("Session source unavailable, reconciling without it")
			continue
		}
		sessions = append(sessions, srcSessions...)
		labs = append(labs, srcLabs...)
	}

	if len(r.sources) > 0 && len(failures) == len(r.sources) {
		return nil, &domain.SourceUnavailableError{Sources: failures}
	}

	merged, stats := MergeSessions(sessions)
	dedupedLabs, labsDropped := DedupLabs(labs)
	stats.DuplicateLabs += labsDropped

	return &Result{
		Sessions: merged,
		Labs:     dedupedLabs,
		Stats:    stats,
	}, nil
}

// MergeSessions groups sessions by their hour-truncated key and merges
// predictions per normalized disease name, keeping the most recently
// produced prediction. Labs attached to sessions are deduplicated
// within each merged session. The result is sorted ascending by
// timestamp. Merging is idempotent: merging the output again changes
// nothing.
func MergeSessions(sessions []*domain.AssessmentSession) ([]*domain.AssessmentSession, MergeStats) {
	groups := make(map[time.Time]*domain.AssessmentSession)
	var stats MergeStats

	for _, s := range sessions {
		if s == nil || s.Timestamp.IsZero() {
			stats.Unparseable++
			continue
		}

		key := s.Key()
		existing, ok := groups[key]
		if !ok {
			groups[key] = normalizeSession(s, &stats)
			continue
		}

		mergeInto(existing, s, &stats)
	}

	merged := make([]*domain.AssessmentSession, 0, len(groups))
	for _, s := range groups {
		merged = append(merged, s)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})

	return merged, stats
}

// normalizeSession copies the session with its identity timestamp,
// normalized prediction keys, and deduplicated labs.
func normalizeSession(s *domain.AssessmentSession, stats *MergeStats) *domain.AssessmentSession {
	out := &domain.AssessmentSession{
		UserID:      s.UserID,
		Timestamp:   s.Key(),
		Source:      s.Source,
		Predictions: make(map[string]*domain.RiskPrediction, len(s.Predictions)),
		Vitality:    s.Vitality,
		Expectancy:  s.Expectancy,
	}
	for key, p := range s.Predictions {
		if p == nil {
			continue
		}
		normalized := domain.NormalizeDiseaseKey(key)
		if existing, ok := out.Predictions[normalized]; !ok || p.GeneratedAt.After(existing.GeneratedAt) {
			out.Predictions[normalized] = p
		}
	}
	var labsDropped int
	out.Labs, labsDropped = DedupLabs(s.Labs)
	stats.DuplicateLabs += labsDropped
	return out
}

// mergeInto folds src into dst (same session key), tallying superseded
// predictions and duplicate labs. The same record arriving from two
// overlapping sources is expected and not counted.
func mergeInto(dst *domain.AssessmentSession, src *domain.AssessmentSession, stats *MergeStats) {
	for key, p := range src.Predictions {
		if p == nil {
			continue
		}
		normalized := domain.NormalizeDiseaseKey(key)
		existing, ok := dst.Predictions[normalized]
		if !ok {
			dst.Predictions[normalized] = p
			continue
		}
		if p.GeneratedAt.Equal(existing.GeneratedAt) {
			continue
		}
		// Per disease the most recently produced prediction wins.
		if p.GeneratedAt.After(existing.GeneratedAt) {
			dst.Predictions[normalized] = p
		}
		stats.Superseded++
	}

	if dst.Vitality == nil {
		dst.Vitality = src.Vitality
	}
	if dst.Expectancy == nil {
		dst.Expectancy = src.Expectancy
	}

	seen := make(map[string]domain.LabObservation, len(dst.Labs))
	for _, lab := range dst.Labs {
		seen[lab.DedupKey()] = lab
	}
	for _, lab := range src.Labs {
		key := lab.DedupKey()
		if prev, ok := seen[key]; ok {
			if prev.Value != lab.Value || !prev.ObservedAt.Equal(lab.ObservedAt) {
				stats.DuplicateLabs++
			}
			continue
		}
		seen[key] = lab
		dst.Labs = append(dst.Labs, lab)
	}

	if dst.Source != src.Source {
		dst.Source = domain.SourceMerged
	}
}

// DedupLabs removes duplicate observations by (normalized test name,
// calendar date), keeping the first encountered, and returns the
// survivors plus the number dropped.
func DedupLabs(labs []domain.LabObservation) ([]domain.LabObservation, int) {
	if len(labs) == 0 {
		return nil, 0
	}

	seen := make(map[string]bool, len(labs))
	out := make([]domain.LabObservation, 0, len(labs))
	dropped := 0
	for _, lab := range labs {
		key := lab.DedupKey()
		if seen[key] {
			dropped++
			continue
		}
		seen[key] = true
		out = append(out, lab)
	}
	return out, dropped
}

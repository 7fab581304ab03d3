package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthlens/risk-engine/internal/domain"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// fakeSource returns canned sessions and labs, or an error.
type fakeSource struct {
	name     string
	sessions []*domain.AssessmentSession
	labs     []domain.LabObservation
	err      error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Load(ctx context.Context, userID string) ([]*domain.AssessmentSession, []domain.LabObservation, error) {
	return f.sessions, f.labs, f.err
}

func sessionAt(source domain.SessionSource, ts time.Time, disease string, score float64) *domain.AssessmentSession {
	return &domain.AssessmentSession{
		UserID:    "user-1",
		Timestamp: ts,
		Source:    source,
		Predictions: map[string]*domain.RiskPrediction{
			disease: {
				Disease:     disease,
				Score:       score,
				Category:    domain.CategorizeRisk(score),
				GeneratedAt: ts,
			},
		},
	}
}

func TestMergeSessions_SameHourBucketCollapses(t *testing.T) {
	local := sessionAt(domain.SourceLocal, time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC), "heart_disease", 0.3)
	remote := sessionAt(domain.SourceRemote, time.Date(2024, 1, 1, 10, 58, 0, 0, time.UTC), "diabetes", 0.2)

	merged, stats := MergeSessions([]*domain.AssessmentSession{local, remote})

	require.Len(t, merged, 1)
	assert.Equal(t, MergeStats{}, stats)

	s := merged[0]
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), s.Timestamp)
	assert.Equal(t, domain.SourceMerged, s.Source)
	assert.Len(t, s.Predictions, 2)
	assert.Contains(t, s.Predictions, "heartdisease")
	assert.Contains(t, s.Predictions, "diabetes")
}

func TestMergeSessions_NewestPredictionWinsPerDisease(t *testing.T) {
	older := sessionAt(domain.SourceRemote, time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC), "heart_disease", 0.3)
	newer := sessionAt(domain.SourceLocal, time.Date(2024, 1, 1, 10, 40, 0, 0, time.UTC), "Heart Disease", 0.6)

	merged, stats := MergeSessions([]*domain.AssessmentSession{older, newer})

	require.Len(t, merged, 1)
	assert.Equal(t, 1, stats.Superseded)

	require.Len(t, merged[0].Predictions, 1)
	assert.Equal(t, 0.6, merged[0].Predictions["heartdisease"].Score)
}

func TestMergeSessions_OrderIndependent(t *testing.T) {
	a := sessionAt(domain.SourceRemote, time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC), "heart_disease", 0.3)
	b := sessionAt(domain.SourceLocal, time.Date(2024, 1, 1, 10, 40, 0, 0, time.UTC), "heart_disease", 0.6)

	forward, _ := MergeSessions([]*domain.AssessmentSession{a, b})
	reverse, _ := MergeSessions([]*domain.AssessmentSession{b, a})

	require.Len(t, forward, 1)
	require.Len(t, reverse, 1)
	assert.Equal(t, forward[0].Predictions["heartdisease"].Score, reverse[0].Predictions["heartdisease"].Score)
}

func TestMergeSessions_Idempotent(t *testing.T) {
	input := []*domain.AssessmentSession{
		sessionAt(domain.SourceLocal, time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC), "heart_disease", 0.3),
		sessionAt(domain.SourceRemote, time.Date(2024, 1, 1, 10, 58, 0, 0, time.UTC), "heart_disease", 0.6),
		sessionAt(domain.SourceRemote, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), "cancer", 0.1),
	}

	once, _ := MergeSessions(input)
	twice, stats := MergeSessions(once)

	assert.Equal(t, MergeStats{}, stats)
	assert.Equal(t, once, twice)
}

func TestMergeSessions_SortedAscending(t *testing.T) {
	input := []*domain.AssessmentSession{
		sessionAt(domain.SourceLocal, time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC), "cancer", 0.1),
		sessionAt(domain.SourceLocal, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), "cancer", 0.2),
		sessionAt(domain.SourceLocal, time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), "cancer", 0.3),
	}

	merged, _ := MergeSessions(input)

	require.Len(t, merged, 3)
	assert.True(t, merged[0].Timestamp.Before(merged[1].Timestamp))
	assert.True(t, merged[1].Timestamp.Before(merged[2].Timestamp))
}

func TestMergeSessions_DropsUnparseableRecords(t *testing.T) {
	input := []*domain.AssessmentSession{
		nil,
		{UserID: "user-1"}, // zero timestamp
		sessionAt(domain.SourceLocal, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), "cancer", 0.2),
	}

	merged, stats := MergeSessions(input)

	require.Len(t, merged, 1)
	assert.Equal(t, 2, stats.Unparseable)
}

func TestMergeSessions_SessionLabsDeduplicated(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a := sessionAt(domain.SourceLocal, day.Add(10*time.Hour), "heart_disease", 0.3)
	a.Labs = []domain.LabObservation{
		{TestName: "Total Cholesterol", Value: 210, ObservedAt: day.Add(9 * time.Hour)},
	}
	b := sessionAt(domain.SourceRemote, day.Add(10*time.Hour+30*time.Minute), "diabetes", 0.2)
	b.Labs = []domain.LabObservation{
		{TestName: "total_cholesterol", Value: 215, ObservedAt: day.Add(11 * time.Hour)}, // same test, same day
		{TestName: "fasting_glucose", Value: 98, ObservedAt: day.Add(11 * time.Hour)},
	}

	merged, stats := MergeSessions([]*domain.AssessmentSession{a, b})

	require.Len(t, merged, 1)
	assert.Equal(t, 1, stats.DuplicateLabs)
	require.Len(t, merged[0].Labs, 2)
	// First encountered wins: the local observation's value survives.
	assert.Equal(t, 210.0, merged[0].Labs[0].Value)
}

func TestDedupLabs_FirstEncounteredWins(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	labs := []domain.LabObservation{
		{TestName: "HbA1c", Value: 5.4, ObservedAt: day.Add(8 * time.Hour)},
		{TestName: "hba1c", Value: 5.6, ObservedAt: day.Add(18 * time.Hour)},
		{TestName: "HbA1c", Value: 5.5, ObservedAt: day.Add(26 * time.Hour)}, // next day, kept
	}

	deduped, dropped := DedupLabs(labs)

	require.Len(t, deduped, 2)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 5.4, deduped[0].Value)
	assert.Equal(t, 5.5, deduped[1].Value)
}

func TestReconcile_ProceedsWhenOneSourceFails(t *testing.T) {
	ts := time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC)
	healthy := &fakeSource{
		name:     "local-cache",
		sessions: []*domain.AssessmentSession{sessionAt(domain.SourceLocal, ts, "heart_disease", 0.3)},
	}
	down := &fakeSource{name: "remote", err: errors.New("connection refused")}

	r := NewReconciler(quietLogger(), healthy, down)

	result, err := r.Reconcile(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, result.Sessions, 1)
}

func TestReconcile_AllSourcesFailing(t *testing.T) {
	r := NewReconciler(quietLogger(),
		&fakeSource{name: "local-cache", err: errors.New("redis down")},
		&fakeSource{name: "remote", err: errors.New("connection refused")},
	)

	_, err := r.Reconcile(context.Background(), "user-1")
	require.Error(t, err)

	var unavailable *domain.SourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Len(t, unavailable.Sources, 2)
}

func TestReconcile_DedupesLabsAcrossSources(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	local := &fakeSource{
		name: "local-cache",
		labs: []domain.LabObservation{{TestName: "HbA1c", Value: 5.4, ObservedAt: day}},
	}
	remote := &fakeSource{
		name: "remote",
		labs: []domain.LabObservation{{TestName: "hba1c", Value: 5.6, ObservedAt: day.Add(2 * time.Hour)}},
	}

	// Local listed first, so its observation wins.
	r := NewReconciler(quietLogger(), local, remote)

	result, err := r.Reconcile(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, result.Labs, 1)
	assert.Equal(t, 5.4, result.Labs[0].Value)
	assert.Equal(t, 1, result.Stats.DuplicateLabs)
}

func TestMergeSessions_OverlappingSourcesNotCounted(t *testing.T) {
	// The cache source reports its latest entry alongside a history that
	// usually already contains it; the identical record must merge away
	// without inflating any counter.
	ts := time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC)
	a := sessionAt(domain.SourceLocal, ts, "heart_disease", 0.3)
	a.Labs = []domain.LabObservation{{TestName: "HbA1c", Value: 5.4, ObservedAt: ts}}
	b := sessionAt(domain.SourceLocal, ts, "heart_disease", 0.3)
	b.Labs = []domain.LabObservation{{TestName: "HbA1c", Value: 5.4, ObservedAt: ts}}

	merged, stats := MergeSessions([]*domain.AssessmentSession{a, b})

	require.Len(t, merged, 1)
	require.Len(t, merged[0].Labs, 1)
	assert.Equal(t, MergeStats{}, stats)
}

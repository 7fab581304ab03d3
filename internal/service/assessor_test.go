package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthlens/risk-engine/internal/domain"
)

// stubGenerator returns canned lines or a fixed error.
type stubGenerator struct {
	lines []string
	err   error
	calls int
}

func (s *stubGenerator) Generate(ctx context.Context, profile *domain.HealthProfile, predictions map[string]*domain.RiskPrediction) ([]string, error) {
	s.calls++
	return s.lines, s.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestAssessor(t *testing.T, gen domain.RecommendationGenerator) *Assessor {
	a, err := NewAssessor(domain.DefaultHeuristics(), gen, 16, quietLogger())
	require.NoError(t, err)
	return a
}

func TestAssessor_AllDiseasesPredicted(t *testing.T) {
	a := newTestAssessor(t, &stubGenerator{lines: []string{"Eat well"}})

	result, err := a.Assess(context.Background(), highRiskProfile(), nil)
	require.NoError(t, err)

	require.Len(t, result.Predictions, 3)
	assert.Contains(t, result.Predictions, "heartdisease")
	assert.Contains(t, result.Predictions, "diabetes")
	assert.Contains(t, result.Predictions, "cancer")

	assert.NotNil(t, result.Vitality)
	assert.NotNil(t, result.Expectancy)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "v1", result.HeuristicsVersion)
}

func TestAssessor_GeneratorFailureUsesFallback(t *testing.T) {
	a := newTestAssessor(t, &stubGenerator{err: errors.New("deadline exceeded")})

	result, err := a.Assess(context.Background(), highRiskProfile(), nil)
	require.NoError(t, err)

	require.Len(t, result.Recommendations, len(fallbackRecommendations))
	for _, rec := range result.Recommendations {
		assert.False(t, rec.Generated)
	}
}

func TestAssessor_EmptyGeneratorOutputUsesFallback(t *testing.T) {
	a := newTestAssessor(t, &stubGenerator{lines: nil})

	result, err := a.Assess(context.Background(), highRiskProfile(), nil)
	require.NoError(t, err)

	require.Len(t, result.Recommendations, len(fallbackRecommendations))
}

func TestAssessor_NilGeneratorUsesFallback(t *testing.T) {
	a := newTestAssessor(t, nil)

	result, err := a.Assess(context.Background(), highRiskProfile(), nil)
	require.NoError(t, err)

	require.Len(t, result.Recommendations, len(fallbackRecommendations))
}

func TestAssessor_GeneratedLinesPrioritized(t *testing.T) {
	a := newTestAssessor(t, &stubGenerator{lines: []string{
		"[Medium] Monitor blood pressure",
		"[High] Quit smoking",
	}})

	result, err := a.Assess(context.Background(), highRiskProfile(), nil)
	require.NoError(t, err)

	require.Len(t, result.Recommendations, 2)
	assert.Equal(t, domain.PriorityHigh, result.Recommendations[0].Priority)
	assert.True(t, result.Recommendations[0].Generated)
}

func TestAssessor_MemoizesPredictions(t *testing.T) {
	a := newTestAssessor(t, &stubGenerator{lines: []string{"Eat well"}})
	profile := highRiskProfile()

	first, err := a.Assess(context.Background(), profile, nil)
	require.NoError(t, err)
	second, err := a.Assess(context.Background(), profile, nil)
	require.NoError(t, err)

	// One memo entry serves both runs, but each run receives its own
	// prediction entities.
	assert.Equal(t, 1, a.memo.Len())
	assert.NotSame(t, first.Predictions["heartdisease"], second.Predictions["heartdisease"])
	assert.Equal(t, first.Predictions["heartdisease"].Score, second.Predictions["heartdisease"].Score)
	assert.Equal(t, first.Predictions["heartdisease"].KeyFactors, second.Predictions["heartdisease"].KeyFactors)
}

func TestAssessor_RepeatAssessmentGetsFreshPredictionEntities(t *testing.T) {
	a := newTestAssessor(t, &stubGenerator{lines: []string{"Eat well"}})
	profile := highRiskProfile()

	first, err := a.Assess(context.Background(), profile, nil)
	require.NoError(t, err)

	// A persistence sink assigns the prediction's row ID in place
	// before insert; that must never leak into a later run.
	first.Predictions["heartdisease"].ID = "11111111-1111-1111-1111-111111111111"

	second, err := a.Assess(context.Background(), profile, nil)
	require.NoError(t, err)

	assert.Empty(t, second.Predictions["heartdisease"].ID)
	assert.False(t, second.Predictions["heartdisease"].GeneratedAt.Before(
		first.Predictions["heartdisease"].GeneratedAt))
}

func TestAssessor_DegradedProfileStaysTotal(t *testing.T) {
	a := newTestAssessor(t, &stubGenerator{lines: []string{"Eat well"}})

	result, err := a.Assess(context.Background(), &domain.HealthProfile{UserID: "u", Age: 55}, nil)
	require.NoError(t, err)

	require.Len(t, result.Predictions, 3)
	for _, pred := range result.Predictions {
		assert.Equal(t, domain.RiskMedium, pred.Category)
		assert.Equal(t, 0.0, pred.Confidence)
	}
	assert.Nil(t, result.Expectancy)
	assert.NotNil(t, result.Vitality)
}

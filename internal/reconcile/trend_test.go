package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthlens/risk-engine/internal/domain"
)

func TestBuildTrends_SparseSeries(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	day3 := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

	first := sessionAt(domain.SourceMerged, day1, "heart_disease", 0.3)
	first.Predictions["diabetes"] = &domain.RiskPrediction{Disease: domain.DiseaseMetabolic, Score: 0.1, GeneratedAt: day1}
	first.Vitality = &domain.VitalityIndex{Score: 60}

	// Day 2 has no diabetes prediction and no vitality index.
	second := sessionAt(domain.SourceMerged, day2, "heart_disease", 0.4)

	third := sessionAt(domain.SourceMerged, day3, "heart_disease", 0.5)
	third.Predictions["diabetes"] = &domain.RiskPrediction{Disease: domain.DiseaseMetabolic, Score: 0.2, GeneratedAt: day3}
	third.Vitality = &domain.VitalityIndex{Score: 55}

	trends := BuildTrends("user-1", []*domain.AssessmentSession{first, second, third})

	require.Contains(t, trends.Diseases, "heartdisease")
	require.Contains(t, trends.Diseases, "diabetes")

	heart := trends.Diseases["heartdisease"]
	require.Len(t, heart.Points, 3)
	assert.Equal(t, []float64{0.3, 0.4, 0.5}, []float64{
		heart.Points[0].Value, heart.Points[1].Value, heart.Points[2].Value,
	})

	// The missing day contributes a gap, not a zero.
	diabetes := trends.Diseases["diabetes"]
	require.Len(t, diabetes.Points, 2)
	assert.Equal(t, day1, diabetes.Points[0].Timestamp)
	assert.Equal(t, day3, diabetes.Points[1].Timestamp)

	require.NotNil(t, trends.Vitality)
	require.Len(t, trends.Vitality.Points, 2)
	assert.Equal(t, 60.0, trends.Vitality.Points[0].Value)
}

func TestBuildTrends_EmptyHistory(t *testing.T) {
	trends := BuildTrends("user-1", nil)

	assert.Equal(t, "user-1", trends.UserID)
	assert.Empty(t, trends.Diseases)
	assert.Nil(t, trends.Vitality)
}

func TestBuildTrends_NormalizesDiseaseKeys(t *testing.T) {
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s := sessionAt(domain.SourceMerged, ts, "Heart_Disease", 0.3)

	trends := BuildTrends("user-1", []*domain.AssessmentSession{s})

	assert.Contains(t, trends.Diseases, "heartdisease")
}

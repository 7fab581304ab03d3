package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/healthlens/risk-engine/internal/domain"
)

func healthyProfile() *domain.HealthProfile {
	return &domain.HealthProfile{
		Age:      25,
		Sex:      domain.SexFemale,
		HeightCM: 170,
		WeightKG: 63, // BMI ~21.8
		Smoking:  domain.SmokingNever,
		Alcohol:  domain.AlcoholModerate,
		Exercise: domain.ExerciseHeavy,
	}
}

func highPrediction(disease string) *domain.RiskPrediction {
	return &domain.RiskPrediction{
		Disease:  disease,
		Score:    0.5,
		Category: domain.RiskHigh,
	}
}

func TestVitality_PenaltiesClampToFloor(t *testing.T) {
	calc := NewVitalityCalculator(domain.DefaultHeuristics())

	// smoking -25, obesity -10, no exercise -15 drops the baseline 50
	// to 0, which clamps to the floor of 15.
	index := calc.Calculate(highRiskProfile(), nil)

	assert.Equal(t, 15, index.Score)
	assert.Equal(t, "Critical", index.Category)
	assert.False(t, index.Capped)
}

func TestVitality_BonusesAccumulate(t *testing.T) {
	calc := NewVitalityCalculator(domain.DefaultHeuristics())

	// non-smoker +5, healthy BMI +6, heavy exercise +8, moderate
	// drinking +3, under 30 +5 on the baseline 50.
	index := calc.Calculate(healthyProfile(), nil)

	assert.Equal(t, 77, index.Score)
	assert.Equal(t, "Good", index.Category)
	assert.False(t, index.Capped)
}

func TestVitality_SingleHighRiskCap(t *testing.T) {
	calc := NewVitalityCalculator(domain.DefaultHeuristics())

	predictions := map[string]*domain.RiskPrediction{
		"heartdisease": highPrediction(domain.DiseaseCardiac),
	}

	index := calc.Calculate(healthyProfile(), predictions)

	assert.Equal(t, 65, index.Score)
	assert.True(t, index.Capped)
	assert.NotEmpty(t, index.CapReason)
	assert.Equal(t, "Fair", index.Category)
}

func TestVitality_MultiHighRiskCap(t *testing.T) {
	calc := NewVitalityCalculator(domain.DefaultHeuristics())

	predictions := map[string]*domain.RiskPrediction{
		"heartdisease": highPrediction(domain.DiseaseCardiac),
		"diabetes":     highPrediction(domain.DiseaseMetabolic),
	}

	index := calc.Calculate(healthyProfile(), predictions)

	assert.Equal(t, 45, index.Score)
	assert.True(t, index.Capped)
	assert.Equal(t, "Critical", index.Category)
}

func TestVitality_CapOnlyLowers(t *testing.T) {
	calc := NewVitalityCalculator(domain.DefaultHeuristics())

	// Already below the single-risk cap: the cap must not raise it.
	predictions := map[string]*domain.RiskPrediction{
		"heartdisease": highPrediction(domain.DiseaseCardiac),
	}

	index := calc.Calculate(highRiskProfile(), predictions)

	assert.Equal(t, 15, index.Score)
	assert.False(t, index.Capped)
}

func TestVitality_CapAppliesAtHighBoundary(t *testing.T) {
	calc := NewVitalityCalculator(domain.DefaultHeuristics())

	// A score exactly on the High threshold lands in the High band and
	// counts toward the cap.
	predictions := map[string]*domain.RiskPrediction{
		"heartdisease": {Disease: domain.DiseaseCardiac, Score: 0.20, Category: domain.CategorizeRisk(0.20)},
	}

	index := calc.Calculate(healthyProfile(), predictions)

	assert.Equal(t, 65, index.Score)
	assert.True(t, index.Capped)
}

func TestVitality_MediumRisksDoNotCap(t *testing.T) {
	calc := NewVitalityCalculator(domain.DefaultHeuristics())

	predictions := map[string]*domain.RiskPrediction{
		"heartdisease": {Disease: domain.DiseaseCardiac, Score: 0.15, Category: domain.RiskMedium},
		"diabetes":     {Disease: domain.DiseaseMetabolic, Score: 0.12, Category: domain.RiskMedium},
	}

	index := calc.Calculate(healthyProfile(), predictions)

	assert.Equal(t, 77, index.Score)
	assert.False(t, index.Capped)
}

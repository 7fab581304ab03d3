package service

import (
	"time"

	"github.com/healthlens/risk-engine/internal/domain"
)

// VitalityCalculator derives the composite 0-100 lifestyle score from a
// profile and the concurrent disease predictions. Adjustments are
// additive and not mutually exclusive; the result is clamped to the
// configured floor/ceiling and then capped by concurrent high risks.
type VitalityCalculator struct {
	heuristics *domain.Heuristics
}

// NewVitalityCalculator creates a vitality index calculator.
func NewVitalityCalculator(h *domain.Heuristics) *VitalityCalculator {
	return &VitalityCalculator{heuristics: h}
}

// Calculate computes the vitality index. The cross-disease cap is
// applied after clamping and can only lower the score.
func (c *VitalityCalculator) Calculate(profile *domain.HealthProfile, predictions map[string]*domain.RiskPrediction) *domain.VitalityIndex {
	v := c.heuristics.Vitality
	score := v.Baseline

	switch profile.Smoking {
	case domain.SmokingCurrent:
		score -= v.SmokingPenalty
	case domain.SmokingNever:
		score += v.NonSmokerBonus
	}

	if bmi, ok := profile.BMI(); ok {
		switch {
		case bmi >= 35:
			score -= v.SevereObesityPenalty
		case bmi >= 30:
			score -= v.ObesityPenalty
		case bmi >= 18.5 && bmi < 25:
			score += v.HealthyBMIBonus
		}
	}

	switch profile.Exercise {
	case domain.ExerciseNone:
		score -= v.NoExercisePenalty
	case domain.ExerciseMinimal:
		score -= v.MinimalExercisePen
	case domain.ExerciseModerate:
		score += v.ModerateExerciseBonus
	case domain.ExerciseHeavy:
		score += v.HeavyExerciseBonus
	}

	switch profile.Alcohol {
	case domain.AlcoholHeavy:
		score -= v.HeavyDrinkingPenalty
	case domain.AlcoholModerate:
		score += v.ModerateDrinkingBonus
	}

	if profile.Age > 0 && profile.Age < 30 {
		score += v.YoungAgeBonus
	}

	if score < v.Floor {
		score = v.Floor
	}
	if score > v.Ceiling {
		score = v.Ceiling
	}

	index := &domain.VitalityIndex{
		Score:       score,
		GeneratedAt: time.Now(),
	}

	highRisks := 0
	for _, p := range predictions {
		if p != nil && p.Category == domain.RiskHigh {
			highRisks++
		}
	}

	limit := 0
	reason := ""
	switch {
	case highRisks >= 2:
		limit = v.MultiHighRiskCap
		reason = "multiple concurrent high disease risks"
	case highRisks == 1:
		limit = v.SingleHighRiskCap
		reason = "concurrent high disease risk"
	}
	if limit > 0 && score > limit {
		index.Score = limit
		index.Capped = true
		index.CapReason = reason
	}

	index.Category = domain.VitalityCategory(index.Score)
	return index
}

package service

import (
	"github.com/healthlens/risk-engine/internal/domain"
)

const oncologicDenominator = 14

// OncologicCalculator scores overall cancer risk with an NCI-derived
// point model. Smoking and age dominate; alcohol, family history,
// obesity, and inactivity contribute smaller weights. No lab values
// feed this model.
type OncologicCalculator struct {
	heuristics *domain.Heuristics
}

// NewOncologicCalculator creates an oncologic risk calculator.
func NewOncologicCalculator(h *domain.Heuristics) *OncologicCalculator {
	return &OncologicCalculator{heuristics: h}
}

// Disease returns the disease identifier this calculator scores.
func (c *OncologicCalculator) Disease() string {
	return domain.DiseaseOncologic
}

// Calculate produces a cancer risk prediction. A profile missing age
// or sex yields the degraded Medium-band prediction with confidence 0.
func (c *OncologicCalculator) Calculate(profile *domain.HealthProfile, labs *domain.LabValues) *domain.RiskPrediction {
	const algorithm = "NCI-Derived Point Model"

	if !profile.HasDemographics() {
		return degradedPrediction(c.Disease(), algorithm, c.heuristics)
	}

	card := &scorecard{}

	switch {
	case profile.Age >= 60:
		card.add("age 60 or older", 4)
	case profile.Age >= 50:
		card.add("age 50-59", 2)
	case profile.Age >= 40:
		card.add("age 40-49", 1)
	}

	switch profile.Smoking {
	case domain.SmokingCurrent:
		card.add("current smoking", 4)
	case domain.SmokingFormer:
		card.add("former smoking", 2)
	}

	if profile.Alcohol == domain.AlcoholHeavy {
		card.add("heavy alcohol use", 2)
	}

	if profile.FamilyCancer {
		card.add("family history of cancer", 2)
	}

	if bmi, ok := profile.BMI(); ok && bmi >= 30 {
		card.add("obesity", 1)
	}

	if profile.Exercise == domain.ExerciseNone {
		card.add("no exercise", 1)
	}

	p := card.prediction(c.Disease(), algorithm, oncologicDenominator, c.heuristics.OncologicConfidence, c.heuristics)
	p.Advice = oncologicAdvice(profile, p)
	return p
}

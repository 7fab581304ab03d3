package service

import (
	"github.com/healthlens/risk-engine/internal/domain"
)

const metabolicDenominator = 16

// MetabolicCalculator scores type 2 diabetes risk with an ADA-derived
// point model over age bracket, BMI bracket, family history, activity
// level, smoking, and (when supplied) glucose, HbA1c, and blood
// pressure.
type MetabolicCalculator struct {
	heuristics *domain.Heuristics
}

// NewMetabolicCalculator creates a metabolic risk calculator.
func NewMetabolicCalculator(h *domain.Heuristics) *MetabolicCalculator {
	return &MetabolicCalculator{heuristics: h}
}

// Disease returns the disease identifier this calculator scores.
func (c *MetabolicCalculator) Disease() string {
	return domain.DiseaseMetabolic
}

// Calculate produces a diabetes risk prediction. A profile missing age
// or sex yields the degraded Medium-band prediction with confidence 0.
func (c *MetabolicCalculator) Calculate(profile *domain.HealthProfile, labs *domain.LabValues) *domain.RiskPrediction {
	const algorithm = "ADA-Derived Point Model"

	if !profile.HasDemographics() {
		return degradedPrediction(c.Disease(), algorithm, c.heuristics)
	}

	card := &scorecard{}

	switch {
	case profile.Age >= 65:
		card.add("age 65 or older", 3)
	case profile.Age >= 45:
		card.add("age 45-64", 2)
	case profile.Age >= 35:
		card.add("age 35-44", 1)
	}

	if bmi, ok := profile.BMI(); ok {
		switch {
		case bmi >= 35:
			card.add("severe obesity", 3)
		case bmi >= 30:
			card.add("obesity", 2)
		case bmi >= 25:
			card.add("overweight", 1)
		}
	}

	if profile.FamilyDiabetes {
		card.add("family history of diabetes", 3)
	}

	switch profile.Exercise {
	case domain.ExerciseNone:
		card.add("no exercise", 2)
	case domain.ExerciseMinimal:
		card.add("minimal exercise", 1)
	}

	if profile.Smoking == domain.SmokingCurrent {
		card.add("current smoking", 1)
	}

	if labs != nil {
		if labs.FastingGlucose > 0 || labs.HbA1c > 0 {
			card.usedLabs = true
			if labs.FastingGlucose > 125 || labs.HbA1c >= 6.5 {
				card.add("elevated blood glucose", 2)
			}
		}
		if labs.SystolicBP > 0 {
			card.usedLabs = true
			if labs.SystolicBP > 140 {
				card.add("elevated blood pressure", 1)
			}
		}
	}

	p := card.prediction(c.Disease(), algorithm, metabolicDenominator, c.heuristics.MetabolicConfidence, c.heuristics)
	p.Advice = metabolicAdvice(profile, p)
	return p
}

package service

import (
	"github.com/healthlens/risk-engine/internal/domain"
)

// cardiacDenominator normalizes the cardiac point total to [0,1].
const cardiacDenominator = 16

// CardiacCalculator scores heart disease risk with a Framingham-derived
// point model over age bracket, sex, BMI bracket, smoking, exercise,
// family history, and (when supplied) cholesterol and blood pressure.
type CardiacCalculator struct {
	heuristics *domain.Heuristics
}

// NewCardiacCalculator creates a cardiac risk calculator.
func NewCardiacCalculator(h *domain.Heuristics) *CardiacCalculator {
	return &CardiacCalculator{heuristics: h}
}

// Disease returns the disease identifier this calculator scores.
func (c *CardiacCalculator) Disease() string {
	return domain.DiseaseCardiac
}

// Calculate produces a cardiac risk prediction. A profile missing age
// or sex yields the degraded Medium-band prediction with confidence 0.
func (c *CardiacCalculator) Calculate(profile *domain.HealthProfile, labs *domain.LabValues) *domain.RiskPrediction {
	const algorithm = "Framingham-Derived Point Model"

	if !profile.HasDemographics() {
		return degradedPrediction(c.Disease(), algorithm, c.heuristics)
	}

	card := &scorecard{}

	switch {
	case profile.Age >= 65:
		card.add("age 65 or older", 4)
	case profile.Age >= 60:
		card.add("age 60-64", 3)
	case profile.Age >= 50:
		card.add("age 50-59", 2)
	case profile.Age >= 40:
		card.add("age 40-49", 1)
	}

	if profile.Sex == domain.SexMale {
		card.add("male sex", 1)
	}

	// BMI exactly on a boundary belongs to the higher bracket.
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

	switch profile.Smoking {
	case domain.SmokingCurrent:
		card.add("current smoking", 3)
	case domain.SmokingFormer:
		card.add("former smoking", 1)
	}

	switch profile.Exercise {
	case domain.ExerciseNone:
		card.add("no exercise", 2)
	case domain.ExerciseMinimal:
		card.add("minimal exercise", 1)
	}

	if profile.FamilyHeart {
		card.add("family history of heart disease", 2)
	}

	if labs != nil {
		if labs.TotalCholesterol > 0 {
			card.usedLabs = true
			if labs.TotalCholesterol > 240 {
				card.add("elevated cholesterol", 2)
			}
		}
		if labs.SystolicBP > 0 {
			card.usedLabs = true
			if labs.SystolicBP > 140 {
				card.add("elevated blood pressure", 2)
			}
		}
	}

	p := card.prediction(c.Disease(), algorithm, cardiacDenominator, c.heuristics.CardiacConfidence, c.heuristics)
	p.Advice = cardiacAdvice(profile, p)
	return p
}

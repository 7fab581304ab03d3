package service

import (
	"time"

	"github.com/healthlens/risk-engine/internal/domain"
)

// ExpectancyProjector estimates life expectancy from the sex-keyed base
// table adjusted by disease risks and lifestyle, and enumerates the
// potential gains from changing each unfavorable modifiable factor.
type ExpectancyProjector struct {
	heuristics *domain.Heuristics
}

// NewExpectancyProjector creates a life expectancy projector.
func NewExpectancyProjector(h *domain.Heuristics) *ExpectancyProjector {
	return &ExpectancyProjector{heuristics: h}
}

// Project computes the projection, or nil when age or sex is missing
// (no base table entry applies). Each potential gain is computed with
// the other factors held fixed, so the sum of gains is an upper bound,
// not a guaranteed compound outcome.
func (p *ExpectancyProjector) Project(profile *domain.HealthProfile, predictions map[string]*domain.RiskPrediction) *domain.LifeExpectancyProjection {
	if !profile.HasDemographics() {
		return nil
	}

	e := p.heuristics.Expectancy

	table := e.MaleBase
	if profile.Sex == domain.SexFemale {
		table = e.FemaleBase
	}
	base := closestAgeLookup(table, profile.Age)

	riskAdj := 0.0
	for key, pred := range predictions {
		if pred == nil {
			continue
		}
		switch domain.NormalizeDiseaseKey(key) {
		case domain.NormalizeDiseaseKey(domain.DiseaseCardiac):
			riskAdj -= pred.Score * e.CardiacYearsPerRisk
		case domain.NormalizeDiseaseKey(domain.DiseaseMetabolic):
			riskAdj -= pred.Score * e.MetabolicYearsPerRisk
		case domain.NormalizeDiseaseKey(domain.DiseaseOncologic):
			riskAdj -= pred.Score * e.OncologicYearsPerRisk
		}
	}

	lifestyleAdj := p.lifestyleYears(profile)

	current := base + riskAdj + lifestyleAdj
	remaining := current - float64(profile.Age)
	if remaining < 0 {
		remaining = 0
	}

	return &domain.LifeExpectancyProjection{
		BaseExpectancy:      base,
		RiskAdjustment:      riskAdj,
		LifestyleAdjustment: lifestyleAdj,
		CurrentExpectancy:   current,
		YearsRemaining:      remaining,
		PotentialGains:      p.potentialGains(profile),
		GeneratedAt:         time.Now(),
	}
}

// lifestyleYears sums the years-scale lifestyle adjustments.
func (p *ExpectancyProjector) lifestyleYears(profile *domain.HealthProfile) float64 {
	e := p.heuristics.Expectancy
	years := 0.0

	if profile.Smoking == domain.SmokingCurrent {
		years += e.SmokingYears
	}

	if bmi, ok := profile.BMI(); ok {
		switch {
		case bmi >= 35:
			years += e.SevereObesityYears
		case bmi >= 30:
			years += e.ObesityYears
		case bmi < 18.5:
			years += e.UnderweightYears
		case bmi < 25:
			years += e.HealthyBMIYears
		}
	}

	years += p.exerciseYears(profile.Exercise)

	switch profile.Alcohol {
	case domain.AlcoholHeavy:
		years += e.AlcoholHeavyYears
	case domain.AlcoholModerate:
		years += e.AlcoholModerateYears
	}

	return years
}

func (p *ExpectancyProjector) exerciseYears(freq domain.ExerciseFrequency) float64 {
	e := p.heuristics.Expectancy
	switch freq {
	case domain.ExerciseHeavy:
		return e.ExerciseHeavyYears
	case domain.ExerciseModerate:
		return e.ExerciseModerateYears
	case domain.ExerciseMinimal:
		return e.ExerciseLightYears
	case domain.ExerciseNone:
		return e.ExerciseNoneYears
	default:
		return 0
	}
}

// potentialGains enumerates the years gained by moving each unfavorable
// factor to its favorable state, each computed independently.
func (p *ExpectancyProjector) potentialGains(profile *domain.HealthProfile) []domain.PotentialGain {
	e := p.heuristics.Expectancy
	var gains []domain.PotentialGain

	if profile.Smoking == domain.SmokingCurrent {
		gains = append(gains, domain.PotentialGain{
			Factor: "quit_smoking",
			Years:  e.QuitSmokingGain,
		})
	}

	if bmi, ok := profile.BMI(); ok && bmi > 24.9 {
		years := (bmi - 24.9) * e.WeightLossPerBMI
		if years > e.WeightLossMaxGain {
			years = e.WeightLossMaxGain
		}
		gains = append(gains, domain.PotentialGain{
			Factor: "weight_loss",
			Years:  years,
		})
	}

	if profile.Exercise != domain.ExerciseHeavy {
		years := e.ExerciseCeilingGain - p.exerciseYears(profile.Exercise)
		if years > 0 {
			gains = append(gains, domain.PotentialGain{
				Factor: "increase_exercise",
				Years:  years,
			})
		}
	}

	if profile.Alcohol == domain.AlcoholHeavy {
		gains = append(gains, domain.PotentialGain{
			Factor: "reduce_alcohol",
			Years:  e.ReduceAlcoholGain,
		})
	}

	return gains
}

// closestAgeLookup picks the table entry whose age key is nearest the
// attained age, resolving ties toward the older key.
func closestAgeLookup(table map[int]float64, age int) float64 {
	best := 0
	bestDist := -1
	for key := range table {
		dist := key - age
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist || (dist == bestDist && key > best) {
			best = key
			bestDist = dist
		}
	}
	return table[best]
}

package service

import (
	"github.com/healthlens/risk-engine/internal/domain"
)

// Static per-disease advice attached to each prediction. These lines are
// deterministic and survive without the external generator; the generated
// recommendation list is assembled separately by the assessor.

func hasFactor(factors []string, name string) bool {
	for _, f := range factors {
		if f == name {
			return true
		}
	}
	return false
}

func cardiacAdvice(profile *domain.HealthProfile, p *domain.RiskPrediction) []string {
	var advice []string

	if profile.Smoking == domain.SmokingCurrent {
		advice = append(advice, "Quit smoking to cut cardiovascular risk within the first year")
	}
	if bmi, ok := profile.BMI(); ok && bmi >= 30 {
		advice = append(advice, "Work toward a healthy weight (BMI 18.5-24.9) through diet and exercise")
	}
	if profile.Exercise == domain.ExerciseNone || profile.Exercise == domain.ExerciseMinimal {
		advice = append(advice, "Build up to 150 minutes of moderate aerobic activity weekly")
	}
	if hasFactor(p.KeyFactors, "elevated cholesterol") {
		advice = append(advice, "Follow a heart-healthy diet and discuss statin therapy with your physician")
	}
	if hasFactor(p.KeyFactors, "elevated blood pressure") {
		advice = append(advice, "Monitor blood pressure regularly and reduce sodium intake")
	}

	switch p.Category {
	case domain.RiskHigh:
		advice = append(advice, "Consult a cardiologist for a comprehensive cardiovascular evaluation")
	case domain.RiskMedium:
		advice = append(advice, "Discuss aspirin and statin use with your physician")
	}

	return advice
}

func metabolicAdvice(profile *domain.HealthProfile, p *domain.RiskPrediction) []string {
	var advice []string

	if bmi, ok := profile.BMI(); ok && bmi >= 25 {
		advice = append(advice, "Lose weight gradually through diet and exercise")
	}
	if profile.Exercise == domain.ExerciseNone || profile.Exercise == domain.ExerciseMinimal {
		advice = append(advice, "Aim for 150 minutes of moderate exercise weekly")
	}

	advice = append(advice,
		"Follow a low-glycemic, high-fiber diet",
		"Monitor blood glucose levels regularly",
	)

	if p.Category == domain.RiskHigh {
		advice = append(advice, "Discuss metformin therapy and a diabetes prevention program with your physician")
	}

	return advice
}

func oncologicAdvice(profile *domain.HealthProfile, p *domain.RiskPrediction) []string {
	var advice []string

	if profile.Smoking == domain.SmokingCurrent {
		advice = append(advice, "Quit smoking to reduce cancer risk")
	}

	advice = append(advice,
		"Follow cancer screening guidelines for your age group",
		"Maintain a diet rich in fruits and vegetables",
	)

	if profile.Alcohol == domain.AlcoholModerate || profile.Alcohol == domain.AlcoholHeavy {
		advice = append(advice, "Limit alcohol consumption to reduce cancer risk")
	}
	if bmi, ok := profile.BMI(); ok && bmi >= 25 {
		advice = append(advice, "Maintain a healthy weight through diet and exercise")
	}

	if p.Category == domain.RiskHigh {
		advice = append(advice, "Discuss enhanced screening protocols with your physician")
	}

	return advice
}

package domain

// Heuristics holds every scoring constant the engine uses. The structure is
// versioned so stored assessments can record which constants produced them
// and so constant changes are reviewable in one place.
type Heuristics struct {
	Version string `json:"version"`

	// Risk banding thresholds (inclusive lower bounds).
	MediumThreshold float64 `json:"medium_threshold"`
	HighThreshold   float64 `json:"high_threshold"`

	// Fixed per-algorithm confidence, plus the bonus applied when lab
	// values contributed to the score.
	CardiacConfidence   float64 `json:"cardiac_confidence"`
	MetabolicConfidence float64 `json:"metabolic_confidence"`
	OncologicConfidence float64 `json:"oncologic_confidence"`
	LabConfidenceBonus  float64 `json:"lab_confidence_bonus"`

	// Score and confidence used when age or sex is missing.
	DegradedScore float64 `json:"degraded_score"`

	Vitality   VitalityHeuristics   `json:"vitality"`
	Expectancy ExpectancyHeuristics `json:"expectancy"`
}

// VitalityHeuristics holds the vitality index adjustments and caps.
type VitalityHeuristics struct {
	Baseline int `json:"baseline"`
	Floor    int `json:"floor"`
	Ceiling  int `json:"ceiling"`

	SmokingPenalty       int `json:"smoking_penalty"`
	SevereObesityPenalty int `json:"severe_obesity_penalty"`
	NoExercisePenalty    int `json:"no_exercise_penalty"`
	HeavyDrinkingPenalty int `json:"heavy_drinking_penalty"`
	ObesityPenalty       int `json:"obesity_penalty"`
	MinimalExercisePen   int `json:"minimal_exercise_penalty"`

	HeavyExerciseBonus    int `json:"heavy_exercise_bonus"`
	HealthyBMIBonus       int `json:"healthy_bmi_bonus"`
	NonSmokerBonus        int `json:"non_smoker_bonus"`
	ModerateExerciseBonus int `json:"moderate_exercise_bonus"`
	YoungAgeBonus         int `json:"young_age_bonus"`
	ModerateDrinkingBonus int `json:"moderate_drinking_bonus"`

	// Cross-disease caps, counting predictions in the High band
	// (score at or above HighThreshold, matching the banding rule).
	SingleHighRiskCap int `json:"single_high_risk_cap"`
	MultiHighRiskCap  int `json:"multi_high_risk_cap"`
}

// ExpectancyHeuristics holds the life expectancy base tables and
// lifestyle adjustments, all on a years scale.
type ExpectancyHeuristics struct {
	// Base expectancy by sex, keyed by attained age. Lookup picks the
	// closest age key. Values derive from the SSA 2023 period life table.
	MaleBase   map[int]float64 `json:"male_base"`
	FemaleBase map[int]float64 `json:"female_base"`

	// Years of expectancy lost per unit of normalized risk score.
	CardiacYearsPerRisk   float64 `json:"cardiac_years_per_risk"`
	MetabolicYearsPerRisk float64 `json:"metabolic_years_per_risk"`
	OncologicYearsPerRisk float64 `json:"oncologic_years_per_risk"`

	SmokingYears       float64 `json:"smoking_years"`
	SevereObesityYears float64 `json:"severe_obesity_years"`
	ObesityYears       float64 `json:"obesity_years"`
	UnderweightYears   float64 `json:"underweight_years"`
	HealthyBMIYears    float64 `json:"healthy_bmi_years"`

	ExerciseHeavyYears    float64 `json:"exercise_heavy_years"`
	ExerciseModerateYears float64 `json:"exercise_moderate_years"`
	ExerciseLightYears    float64 `json:"exercise_light_years"`
	ExerciseNoneYears     float64 `json:"exercise_none_years"`

	AlcoholHeavyYears    float64 `json:"alcohol_heavy_years"`
	AlcoholModerateYears float64 `json:"alcohol_moderate_years"`

	// Potential gains, each computed with the other factors held fixed.
	QuitSmokingGain     float64 `json:"quit_smoking_gain"`
	WeightLossPerBMI    float64 `json:"weight_loss_per_bmi"`
	WeightLossMaxGain   float64 `json:"weight_loss_max_gain"`
	ExerciseCeilingGain float64 `json:"exercise_ceiling_gain"`
	ReduceAlcoholGain   float64 `json:"reduce_alcohol_gain"`
}

// DefaultHeuristics returns the v1 constant set.
func DefaultHeuristics() *Heuristics {
	return &Heuristics{
		Version: "v1",

		MediumThreshold: 0.10,
		HighThreshold:   0.20,

		CardiacConfidence:   0.89,
		MetabolicConfidence: 0.92,
		OncologicConfidence: 0.85,
		LabConfidenceBonus:  0.05,

		DegradedScore: 0.15,

		Vitality: VitalityHeuristics{
			Baseline: 50,
			Floor:    15,
			Ceiling:  95,

			SmokingPenalty:       25,
			SevereObesityPenalty: 15,
			NoExercisePenalty:    15,
			HeavyDrinkingPenalty: 12,
			ObesityPenalty:       10,
			MinimalExercisePen:   8,

			HeavyExerciseBonus:    8,
			HealthyBMIBonus:       6,
			NonSmokerBonus:        5,
			ModerateExerciseBonus: 5,
			YoungAgeBonus:         5,
			ModerateDrinkingBonus: 3,

			SingleHighRiskCap: 65,
			MultiHighRiskCap:  45,
		},

		Expectancy: ExpectancyHeuristics{
			MaleBase: map[int]float64{
				20: 77.2,
				30: 77.8,
				40: 78.6,
				50: 79.8,
				60: 81.6,
				70: 84.3,
				80: 88.2,
			},
			FemaleBase: map[int]float64{
				20: 81.8,
				30: 82.2,
				40: 82.7,
				50: 83.5,
				60: 84.8,
				70: 86.8,
				80: 89.8,
			},

			CardiacYearsPerRisk:   6.0,
			MetabolicYearsPerRisk: 4.5,
			OncologicYearsPerRisk: 5.5,

			SmokingYears:       -8.5,
			SevereObesityYears: -3.2,
			ObesityYears:       -1.8,
			UnderweightYears:   -1.5,
			HealthyBMIYears:    1.2,

			ExerciseHeavyYears:    2.8,
			ExerciseModerateYears: 1.9,
			ExerciseLightYears:    0.8,
			ExerciseNoneYears:     -2.1,

			AlcoholHeavyYears:    -2.3,
			AlcoholModerateYears: 0.5,

			QuitSmokingGain:     8.5,
			WeightLossPerBMI:    0.3,
			WeightLossMaxGain:   3.2,
			ExerciseCeilingGain: 2.8,
			ReduceAlcoholGain:   2.8,
		},
	}
}

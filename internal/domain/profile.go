package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Accepted ranges for self-reported numeric fields.
const (
	MinAge    = 18
	MaxAge    = 120
	MinHeight = 100.0 // cm
	MaxHeight = 250.0
	MinWeight = 30.0 // kg
	MaxWeight = 300.0
	MinSleep  = 3.0 // hours per night
	MaxSleep  = 12.0
	MinStress = 1
	MaxStress = 10
)

// HealthProfile is a normalized snapshot of a user's self-reported health
// data. Enum fields always hold valid values after normalization; the
// Defaulted set records which of them were imputed rather than reported,
// so imputed values are never written back to a store.
type HealthProfile struct {
	UserID          string            `json:"user_id"`
	Age             int               `json:"age"`
	Sex             Sex               `json:"sex"`
	HeightCM        float64           `json:"height_cm"`
	WeightKG        float64           `json:"weight_kg"`
	Smoking         SmokingStatus     `json:"smoking"`
	Alcohol         AlcoholLevel      `json:"alcohol"`
	Exercise        ExerciseFrequency `json:"exercise"`
	Diet            DietQuality       `json:"diet"`
	SleepHours      float64           `json:"sleep_hours,omitempty"`
	StressLevel     int               `json:"stress_level,omitempty"`
	FamilyHeart     bool              `json:"family_heart_disease"`
	FamilyDiabetes  bool              `json:"family_diabetes"`
	FamilyCancer    bool              `json:"family_cancer"`
	Conditions      []string          `json:"conditions,omitempty"`
	Medications     []string          `json:"medications,omitempty"`
	Defaulted       map[string]bool   `json:"-"`
}

// BMI returns the body mass index and whether it could be computed.
// Height or weight at or below zero means the profile never reported them.
func (p *HealthProfile) BMI() (float64, bool) {
	if p.HeightCM <= 0 || p.WeightKG <= 0 {
		return 0, false
	}
	m := p.HeightCM / 100.0
	return p.WeightKG / (m * m), true
}

// HasDemographics reports whether the fields every calculator requires
// (age and sex) were reported. Calculators degrade to a neutral result
// when they are missing instead of failing.
func (p *HealthProfile) HasDemographics() bool {
	return p.Age > 0 && p.Sex.IsValid()
}

// WasDefaulted reports whether the named field was imputed during
// normalization rather than reported by the user.
func (p *HealthProfile) WasDefaulted(field string) bool {
	return p.Defaulted[field]
}

// Validate checks the numeric fields against their accepted ranges.
// It aggregates every violation instead of stopping at the first.
func (p *HealthProfile) Validate() error {
	verr := &ValidationError{}
	if p.Age < MinAge || p.Age > MaxAge {
		verr.Add("age", fmt.Sprintf("must be between %d and %d", MinAge, MaxAge), p.Age)
	}
	if p.HeightCM != 0 && (p.HeightCM < MinHeight || p.HeightCM > MaxHeight) {
		verr.Add("height_cm", fmt.Sprintf("must be between %.0f and %.0f", MinHeight, MaxHeight), p.HeightCM)
	}
	if p.WeightKG != 0 && (p.WeightKG < MinWeight || p.WeightKG > MaxWeight) {
		verr.Add("weight_kg", fmt.Sprintf("must be between %.0f and %.0f", MinWeight, MaxWeight), p.WeightKG)
	}
	if p.SleepHours != 0 && (p.SleepHours < MinSleep || p.SleepHours > MaxSleep) {
		verr.Add("sleep_hours", fmt.Sprintf("must be between %.0f and %.0f", MinSleep, MaxSleep), p.SleepHours)
	}
	if p.StressLevel != 0 && (p.StressLevel < MinStress || p.StressLevel > MaxStress) {
		verr.Add("stress_level", fmt.Sprintf("must be between %d and %d", MinStress, MaxStress), p.StressLevel)
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// ParseProfile normalizes a raw form submission into a HealthProfile.
// Every invalid field is collected into a single *ValidationError so the
// caller can report all problems at once. Missing lifestyle enums are
// imputed with neutral values and recorded in Defaulted.
func ParseProfile(userID string, raw map[string]any) (*HealthProfile, error) {
	p := &HealthProfile{
		UserID:    userID,
		Defaulted: make(map[string]bool),
	}
	verr := &ValidationError{}

	if age, ok, err := intField(raw, "age"); err != nil {
		verr.Add("age", err.Error(), raw["age"])
	} else if ok {
		if age < MinAge || age > MaxAge {
			verr.Add("age", fmt.Sprintf("must be between %d and %d", MinAge, MaxAge), age)
		} else {
			p.Age = age
		}
	}

	if s, ok := stringField(raw, "sex", "gender"); ok {
		sex := normalizeSex(s)
		if !sex.IsValid() {
			verr.Add("sex", "must be male or female", s)
		} else {
			p.Sex = sex
		}
	}

	if h, ok, err := floatField(raw, "height_cm", "height"); err != nil {
		verr.Add("height_cm", err.Error(), raw["height_cm"])
	} else if ok {
		if h < MinHeight || h > MaxHeight {
			verr.Add("height_cm", fmt.Sprintf("must be between %.0f and %.0f", MinHeight, MaxHeight), h)
		} else {
			p.HeightCM = h
		}
	}

	if w, ok, err := floatField(raw, "weight_kg", "weight"); err != nil {
		verr.Add("weight_kg", err.Error(), raw["weight_kg"])
	} else if ok {
		if w < MinWeight || w > MaxWeight {
			verr.Add("weight_kg", fmt.Sprintf("must be between %.0f and %.0f", MinWeight, MaxWeight), w)
		} else {
			p.WeightKG = w
		}
	}

	if s, ok := stringField(raw, "smoking", "smoking_status"); ok {
		smoking, known := normalizeSmoking(s)
		if !known {
			verr.Add("smoking", "unrecognized smoking status", s)
		} else {
			p.Smoking = smoking
		}
	} else {
		p.Smoking = SmokingNever
		p.Defaulted["smoking"] = true
	}

	if s, ok := stringField(raw, "alcohol", "alcohol_consumption"); ok {
		alcohol, known := normalizeAlcohol(s)
		if !known {
			verr.Add("alcohol", "unrecognized alcohol level", s)
		} else {
			p.Alcohol = alcohol
		}
	} else {
		p.Alcohol = AlcoholNone
		p.Defaulted["alcohol"] = true
	}

	if s, ok := stringField(raw, "exercise", "exercise_frequency"); ok {
		exercise, known := normalizeExercise(s)
		if !known {
			verr.Add("exercise", "unrecognized exercise frequency", s)
		} else {
			p.Exercise = exercise
		}
	} else {
		p.Exercise = ExerciseMinimal
		p.Defaulted["exercise"] = true
	}

	if s, ok := stringField(raw, "diet", "diet_quality"); ok {
		diet, known := normalizeDiet(s)
		if !known {
			verr.Add("diet", "unrecognized diet quality", s)
		} else {
			p.Diet = diet
		}
	} else {
		p.Diet = DietAverage
		p.Defaulted["diet"] = true
	}

	if v, ok, err := floatField(raw, "sleep_hours"); err != nil {
		verr.Add("sleep_hours", err.Error(), raw["sleep_hours"])
	} else if ok {
		if v < MinSleep || v > MaxSleep {
			verr.Add("sleep_hours", fmt.Sprintf("must be between %.0f and %.0f", MinSleep, MaxSleep), v)
		} else {
			p.SleepHours = v
		}
	}

	if v, ok, err := intField(raw, "stress_level"); err != nil {
		verr.Add("stress_level", err.Error(), raw["stress_level"])
	} else if ok {
		if v < MinStress || v > MaxStress {
			verr.Add("stress_level", fmt.Sprintf("must be between %d and %d", MinStress, MaxStress), v)
		} else {
			p.StressLevel = v
		}
	}

	p.FamilyHeart = boolField(raw, "family_heart_disease")
	p.FamilyDiabetes = boolField(raw, "family_diabetes")
	p.FamilyCancer = boolField(raw, "family_cancer")
	p.Conditions = stringSliceField(raw, "conditions")
	p.Medications = stringSliceField(raw, "medications")

	if verr.HasErrors() {
		return nil, verr
	}
	return p, nil
}

// normalizeSex maps raw input synonyms to a Sex value.
func normalizeSex(s string) Sex {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m", "man":
		return SexMale
	case "female", "f", "woman":
		return SexFemale
	default:
		return Sex(strings.ToLower(s))
	}
}

// normalizeSmoking maps raw input synonyms to a SmokingStatus.
func normalizeSmoking(s string) (SmokingStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "never", "no", "non-smoker", "nonsmoker":
		return SmokingNever, true
	case "former", "quit", "ex-smoker":
		return SmokingFormer, true
	case "current", "yes", "daily", "smoker", "occasional":
		return SmokingCurrent, true
	default:
		return "", false
	}
}

// normalizeAlcohol maps raw input synonyms to an AlcoholLevel.
func normalizeAlcohol(s string) (AlcoholLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "never", "no":
		return AlcoholNone, true
	case "moderate", "social", "occasionally", "weekly":
		return AlcoholModerate, true
	case "heavy", "daily", "frequent":
		return AlcoholHeavy, true
	default:
		return "", false
	}
}

// normalizeExercise maps raw input synonyms to an ExerciseFrequency.
func normalizeExercise(s string) (ExerciseFrequency, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "never", "sedentary":
		return ExerciseNone, true
	case "minimal", "rarely", "light", "1-2 times per week":
		return ExerciseMinimal, true
	case "moderate", "regular", "3-4 times per week":
		return ExerciseModerate, true
	case "heavy", "intense", "daily", "5+ times per week":
		return ExerciseHeavy, true
	default:
		return "", false
	}
}

// normalizeDiet maps raw input synonyms to a DietQuality.
func normalizeDiet(s string) (DietQuality, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "poor", "bad", "unhealthy":
		return DietPoor, true
	case "average", "fair", "mixed":
		return DietAverage, true
	case "good", "healthy":
		return DietGood, true
	case "excellent", "very healthy":
		return DietExcellent, true
	default:
		return "", false
	}
}

func stringField(raw map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s, true
			}
		}
	}
	return "", false
}

func intField(raw map[string]any, keys ...string) (int, bool, error) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case int:
			return n, true, nil
		case int64:
			return int(n), true, nil
		case float64:
			return int(n), true, nil
		case string:
			parsed, err := strconv.Atoi(strings.TrimSpace(n))
			if err != nil {
				return 0, false, fmt.Errorf("must be a whole number")
			}
			return parsed, true, nil
		default:
			return 0, false, fmt.Errorf("must be a whole number")
		}
	}
	return 0, false, nil
}

func floatField(raw map[string]any, keys ...string) (float64, bool, error) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true, nil
		case int:
			return float64(n), true, nil
		case int64:
			return float64(n), true, nil
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return 0, false, fmt.Errorf("must be a number")
			}
			return parsed, true, nil
		default:
			return 0, false, fmt.Errorf("must be a number")
		}
	}
	return 0, false, nil
}

func boolField(raw map[string]any, key string) bool {
	v, ok := raw[key]
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "1":
			return true
		}
	}
	return false
}

func stringSliceField(raw map[string]any, key string) []string {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
				out = append(out, str)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case string:
		if strings.TrimSpace(s) == "" {
			return nil
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return nil
}

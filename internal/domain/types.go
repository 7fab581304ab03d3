// Package domain contains the core entities for risk scoring and session
// reconciliation over self-reported health data: normalized health profiles,
// per-disease risk predictions, vitality scoring, life expectancy projections
// and assessment sessions merged from local and remote sources.
package domain

import (
	"errors"
	"strings"
)

// Sex represents the biological sex used by the scoring heuristics.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// SmokingStatus represents the smoking habit bucket of a profile.
type SmokingStatus string

const (
	SmokingNever   SmokingStatus = "never"
	SmokingFormer  SmokingStatus = "former"
	SmokingCurrent SmokingStatus = "current"
)

// AlcoholLevel represents the alcohol consumption bucket of a profile.
type AlcoholLevel string

const (
	AlcoholNone     AlcoholLevel = "none"
	AlcoholModerate AlcoholLevel = "moderate"
	AlcoholHeavy    AlcoholLevel = "heavy"
)

// ExerciseFrequency represents the exercise habit bucket of a profile.
type ExerciseFrequency string

const (
	ExerciseNone     ExerciseFrequency = "none"
	ExerciseMinimal  ExerciseFrequency = "minimal"
	ExerciseModerate ExerciseFrequency = "moderate"
	ExerciseHeavy    ExerciseFrequency = "heavy"
)

// DietQuality represents the self-assessed diet quality bucket.
type DietQuality string

const (
	DietPoor      DietQuality = "poor"
	DietAverage   DietQuality = "average"
	DietGood      DietQuality = "good"
	DietExcellent DietQuality = "excellent"
)

// RiskCategory is the categorical banding of a normalized risk score.
// Bands are inclusive on their lower bound: a score of exactly 0.10 is
// Medium and a score of exactly 0.20 is High.
type RiskCategory string

const (
	RiskLow    RiskCategory = "Low"
	RiskMedium RiskCategory = "Medium"
	RiskHigh   RiskCategory = "High"
)

// Priority is the urgency tier assigned to a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// SessionSource identifies which store an assessment session came from.
type SessionSource string

const (
	SourceLocal  SessionSource = "local"
	SourceRemote SessionSource = "remote"
	SourceMerged SessionSource = "merged"
)

// Validation errors for profile and session integrity.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidSex        = errors.New("invalid sex")
	ErrInvalidSmoking    = errors.New("invalid smoking status")
	ErrInvalidAlcohol    = errors.New("invalid alcohol level")
	ErrInvalidExercise   = errors.New("invalid exercise frequency")
	ErrInvalidDiet       = errors.New("invalid diet quality")
	ErrInvalidRiskScore  = errors.New("risk score out of [0,1] range")
	ErrInvalidPriority   = errors.New("invalid recommendation priority")
	ErrUnknownDisease    = errors.New("unknown disease key")
	ErrNoSourceAvailable = errors.New("no session source available")
)

// IsValid reports whether the sex value is one the heuristics can score.
func (s Sex) IsValid() bool {
	switch s {
	case SexMale, SexFemale:
		return true
	default:
		return false
	}
}

func (s Sex) String() string { return string(s) }

// IsValid reports whether the smoking status is a known bucket.
func (s SmokingStatus) IsValid() bool {
	switch s {
	case SmokingNever, SmokingFormer, SmokingCurrent:
		return true
	default:
		return false
	}
}

func (s SmokingStatus) String() string { return string(s) }

// IsValid reports whether the alcohol level is a known bucket.
func (a AlcoholLevel) IsValid() bool {
	switch a {
	case AlcoholNone, AlcoholModerate, AlcoholHeavy:
		return true
	default:
		return false
	}
}

func (a AlcoholLevel) String() string { return string(a) }

// IsValid reports whether the exercise frequency is a known bucket.
func (e ExerciseFrequency) IsValid() bool {
	switch e {
	case ExerciseNone, ExerciseMinimal, ExerciseModerate, ExerciseHeavy:
		return true
	default:
		return false
	}
}

func (e ExerciseFrequency) String() string { return string(e) }

// IsValid reports whether the diet quality is a known bucket.
func (d DietQuality) IsValid() bool {
	switch d {
	case DietPoor, DietAverage, DietGood, DietExcellent:
		return true
	default:
		return false
	}
}

func (d DietQuality) String() string { return string(d) }

// IsValid reports whether the risk category is one of the three bands.
func (r RiskCategory) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}

func (r RiskCategory) String() string { return string(r) }

// LogFields returns structured logging fields for audit trails.
func (r RiskCategory) LogFields() map[string]any {
	return map[string]any{
		"risk_category":   string(r),
		"is_valid":        r.IsValid(),
		"requires_action": r.RequiresAction(),
	}
}

// RequiresAction reports whether the category should surface a follow-up
// to the user. Unknown categories are treated as actionable.
func (r RiskCategory) RequiresAction() bool {
	switch r {
	case RiskLow:
		return false
	case RiskMedium, RiskHigh:
		return true
	default:
		return true
	}
}

// IsValid reports whether the priority is a known tier.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

func (p Priority) String() string { return string(p) }

// Rank returns a sortable weight for the priority, highest first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// CategorizeRisk bands a normalized score into Low/Medium/High.
// Scores are clamped into [0,1] before banding so callers never see an
// out-of-band category for slightly-off float arithmetic.
func CategorizeRisk(score float64) RiskCategory {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	switch {
	case score < 0.10:
		return RiskLow
	case score < 0.20:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// NormalizeDiseaseKey canonicalizes a disease identifier so that
// "Heart Disease", "heart_disease" and "heartdisease" compare equal
// when merging predictions across sources.
func NormalizeDiseaseKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "-", "")
	return key
}

// Canonical disease keys produced by the built-in calculators.
const (
	DiseaseCardiac   = "heart_disease"
	DiseaseMetabolic = "diabetes"
	DiseaseOncologic = "cancer"
)

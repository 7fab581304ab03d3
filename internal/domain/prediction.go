package domain

import (
	"time"
)

// RiskPrediction is one disease risk estimate. Predictions are immutable:
// a newer assessment supersedes an older one by GeneratedAt, it never
// mutates it in place.
type RiskPrediction struct {
	ID          string       `json:"id,omitempty"`
	Disease     string       `json:"disease"`
	Score       float64      `json:"score"`
	Category    RiskCategory `json:"category"`
	Confidence  float64      `json:"confidence"`
	Algorithm   string       `json:"algorithm"`
	KeyFactors  []string     `json:"key_factors,omitempty"`
	Advice      []string     `json:"advice,omitempty"`
	UsedLabs    bool         `json:"used_labs"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// DiseaseKey returns the normalized merge key for the prediction.
func (p *RiskPrediction) DiseaseKey() string {
	return NormalizeDiseaseKey(p.Disease)
}

// VitalityIndex is the composite lifestyle score on a 0-100 scale,
// clamped into [15,95] and possibly capped by concurrent high risks.
type VitalityIndex struct {
	Score       int       `json:"score"`
	Category    string    `json:"category"`
	Capped      bool      `json:"capped"`
	CapReason   string    `json:"cap_reason,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// VitalityCategory maps a vitality score to its descriptive band.
func VitalityCategory(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 80:
		return "Very Good"
	case score >= 70:
		return "Good"
	case score >= 60:
		return "Fair"
	case score >= 50:
		return "Poor"
	default:
		return "Critical"
	}
}

// PotentialGain is one modifiable-factor improvement to life expectancy,
// computed with all other factors held constant.
type PotentialGain struct {
	Factor string  `json:"factor"`
	Years  float64 `json:"years"`
}

// LifeExpectancyProjection estimates remaining years from the base table
// adjusted for disease risks and lifestyle.
//
// PotentialGains are each computed independently; summing them gives an
// upper bound, not an achievable total, because the factors interact.
type LifeExpectancyProjection struct {
	BaseExpectancy      float64         `json:"base_expectancy"`
	RiskAdjustment      float64         `json:"risk_adjustment"`
	LifestyleAdjustment float64         `json:"lifestyle_adjustment"`
	CurrentExpectancy   float64         `json:"current_expectancy"`
	YearsRemaining      float64         `json:"years_remaining"`
	PotentialGains      []PotentialGain `json:"potential_gains,omitempty"`
	GeneratedAt         time.Time       `json:"generated_at"`
}

// SumOfGains returns the total of all potential gains. The total is an
// upper bound on what the user could actually achieve.
func (p *LifeExpectancyProjection) SumOfGains() float64 {
	var total float64
	for _, g := range p.PotentialGains {
		total += g.Years
	}
	return total
}

// Recommendation is one prioritized lifestyle or clinical suggestion.
type Recommendation struct {
	Text      string   `json:"text"`
	Priority  Priority `json:"priority"`
	Generated bool     `json:"generated"` // false for static fallback text
}

// LabObservation is a single lab measurement attached to a session.
// Observations deduplicate on (normalized test name, calendar date).
type LabObservation struct {
	ID         string    `json:"id,omitempty"`
	TestName   string    `json:"test_name"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// DedupKey returns the identity used when merging observations across
// sources: normalized test name plus the UTC calendar date.
func (o *LabObservation) DedupKey() string {
	return NormalizeDiseaseKey(o.TestName) + "|" + o.ObservedAt.UTC().Format("2006-01-02")
}

// LabValues is the subset of lab measurements the calculators read,
// extracted from a session's observations.
type LabValues struct {
	TotalCholesterol float64 `json:"total_cholesterol,omitempty"`
	SystolicBP       float64 `json:"systolic_bp,omitempty"`
	FastingGlucose   float64 `json:"fasting_glucose,omitempty"`
	HbA1c            float64 `json:"hba1c,omitempty"`
}

// LabValuesFrom extracts the calculator-relevant values from raw
// observations, matching test names loosely (case, spaces, underscores
// ignored). When the same test appears more than once the most recent
// observation wins.
func LabValuesFrom(observations []LabObservation) *LabValues {
	if len(observations) == 0 {
		return nil
	}

	values := &LabValues{}
	newest := make(map[string]time.Time)

	assign := func(field *float64, name string, obs LabObservation) {
		if obs.ObservedAt.Before(newest[name]) {
			return
		}
		newest[name] = obs.ObservedAt
		*field = obs.Value
	}

	for _, obs := range observations {
		switch NormalizeDiseaseKey(obs.TestName) {
		case "totalcholesterol", "cholesterol":
			assign(&values.TotalCholesterol, "cholesterol", obs)
		case "systolicbp", "systolicbloodpressure", "bloodpressure":
			assign(&values.SystolicBP, "systolicbp", obs)
		case "fastingglucose", "glucose", "bloodglucose":
			assign(&values.FastingGlucose, "glucose", obs)
		case "hba1c":
			assign(&values.HbA1c, "hba1c", obs)
		}
	}

	if !values.HasAny() {
		return nil
	}
	return values
}

// HasAny reports whether at least one lab value is present.
func (l *LabValues) HasAny() bool {
	if l == nil {
		return false
	}
	return l.TotalCholesterol > 0 || l.SystolicBP > 0 || l.FastingGlucose > 0 || l.HbA1c > 0
}

// AssessmentSession is one reconciled assessment moment. Sessions are
// identified by their timestamp truncated to the hour: records from
// different sources within the same hour describe the same session.
type AssessmentSession struct {
	UserID      string                     `json:"user_id"`
	Timestamp   time.Time                  `json:"timestamp"`
	Source      SessionSource              `json:"source"`
	Predictions map[string]*RiskPrediction `json:"predictions"` // keyed by normalized disease
	Vitality    *VitalityIndex             `json:"vitality,omitempty"`
	Expectancy  *LifeExpectancyProjection  `json:"expectancy,omitempty"`
	Labs        []LabObservation           `json:"labs,omitempty"`
}

// Key returns the session identity bucket.
func (s *AssessmentSession) Key() time.Time {
	return s.Timestamp.Truncate(time.Hour)
}

// Assessment is the full result of one scoring run over a profile.
type Assessment struct {
	ID                string                     `json:"id"`
	UserID            string                     `json:"user_id"`
	Profile           *HealthProfile             `json:"profile"`
	Predictions       map[string]*RiskPrediction `json:"predictions"`
	Vitality          *VitalityIndex             `json:"vitality"`
	Expectancy        *LifeExpectancyProjection  `json:"expectancy"`
	Recommendations   []Recommendation           `json:"recommendations"`
	HeuristicsVersion string                     `json:"heuristics_version"`
	GeneratedAt       time.Time                  `json:"generated_at"`
}

// Session converts the assessment into its session representation for
// storage and reconciliation.
func (a *Assessment) Session() *AssessmentSession {
	return &AssessmentSession{
		UserID:      a.UserID,
		Timestamp:   a.GeneratedAt,
		Source:      SourceLocal,
		Predictions: a.Predictions,
		Vitality:    a.Vitality,
		Expectancy:  a.Expectancy,
	}
}

// TrendPoint is one time-aligned metric sample.
type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TrendSeries is the ordered samples of one metric across sessions.
// A session that lacks the metric contributes no point; gaps are gaps,
// never zeros.
type TrendSeries struct {
	Metric string       `json:"metric"`
	Points []TrendPoint `json:"points"`
}

// TrendSet groups per-disease risk series and the vitality series for a
// user's merged session history.
type TrendSet struct {
	UserID   string                  `json:"user_id"`
	Diseases map[string]*TrendSeries `json:"diseases"`
	Vitality *TrendSeries            `json:"vitality,omitempty"`
}

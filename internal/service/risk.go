// Package service implements the risk scoring pipeline: the three
// disease calculators, the vitality index, the life expectancy
// projection, recommendation prioritization, and the assessor that
// orchestrates them over a normalized profile.
package service

import (
	"sort"
	"time"

	"github.com/healthlens/risk-engine/internal/domain"
)

// maxKeyFactors bounds how many contributing factors a prediction reports.
const maxKeyFactors = 5

// factor is one scored risk contributor.
type factor struct {
	name   string
	points int
}

// scorecard accumulates point contributions for one calculator run.
// Factors with zero points are never recorded.
type scorecard struct {
	factors  []factor
	usedLabs bool
}

func (s *scorecard) add(name string, points int) {
	if points <= 0 {
		return
	}
	s.factors = append(s.factors, factor{name: name, points: points})
}

func (s *scorecard) total() int {
	sum := 0
	for _, f := range s.factors {
		sum += f.points
	}
	return sum
}

// keyFactors returns up to maxKeyFactors contributor names, highest
// impact first. The sort is stable so equal-point factors keep the
// order they were scored in.
func (s *scorecard) keyFactors() []string {
	ranked := make([]factor, len(s.factors))
	copy(ranked, s.factors)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].points > ranked[j].points
	})

	limit := len(ranked)
	if limit > maxKeyFactors {
		limit = maxKeyFactors
	}
	names := make([]string, 0, limit)
	for _, f := range ranked[:limit] {
		names = append(names, f.name)
	}
	return names
}

// prediction converts the accumulated points into a RiskPrediction
// using the calculator's fixed denominator and base confidence.
func (s *scorecard) prediction(disease, algorithm string, denominator int, baseConfidence float64, h *domain.Heuristics) *domain.RiskPrediction {
	score := float64(s.total()) / float64(denominator)
	if score > 1.0 {
		score = 1.0
	}

	confidence := baseConfidence
	if s.usedLabs {
		confidence += h.LabConfidenceBonus
		if confidence > 1.0 {
			confidence = 1.0
		}
	}

	return &domain.RiskPrediction{
		Disease:     disease,
		Score:       score,
		Category:    domain.CategorizeRisk(score),
		Confidence:  confidence,
		Algorithm:   algorithm,
		KeyFactors:  s.keyFactors(),
		UsedLabs:    s.usedLabs,
		GeneratedAt: time.Now(),
	}
}

// degradedPrediction is the response when age or sex is missing: the
// pipeline stays total, reporting a Medium-band placeholder with zero
// confidence instead of failing.
func degradedPrediction(disease, algorithm string, h *domain.Heuristics) *domain.RiskPrediction {
	return &domain.RiskPrediction{
		Disease:     disease,
		Score:       h.DegradedScore,
		Category:    domain.CategorizeRisk(h.DegradedScore),
		Confidence:  0,
		Algorithm:   algorithm,
		GeneratedAt: time.Now(),
	}
}

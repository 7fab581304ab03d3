package reconcile

import (
	"github.com/healthlens/risk-engine/internal/domain"
)

// vitalityMetric names the vitality series in a trend set.
const vitalityMetric = "vitality"

// BuildTrends converts an ordered session list into sparse per-disease
// risk series plus the vitality series. A session that lacks a disease
// or a vitality index contributes no point there: gaps stay gaps, they
// are never plotted as zero.
func BuildTrends(userID string, sessions []*domain.AssessmentSession) *domain.TrendSet {
	set := &domain.TrendSet{
		UserID:   userID,
		Diseases: make(map[string]*domain.TrendSeries),
	}

	for _, s := range sessions {
		if s == nil {
			continue
		}

		for key, p := range s.Predictions {
			if p == nil {
				continue
			}
			normalized := domain.NormalizeDiseaseKey(key)
			series, ok := set.Diseases[normalized]
			if !ok {
				series = &domain.TrendSeries{Metric: normalized}
				set.Diseases[normalized] = series
			}
			series.Points = append(series.Points, domain.TrendPoint{
				Timestamp: s.Timestamp,
				Value:     p.Score,
			})
		}

		if s.Vitality != nil {
			if set.Vitality == nil {
				set.Vitality = &domain.TrendSeries{Metric: vitalityMetric}
			}
			set.Vitality.Points = append(set.Vitality.Points, domain.TrendPoint{
				Timestamp: s.Timestamp,
				Value:     float64(s.Vitality.Score),
			})
		}
	}

	return set
}

package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/healthlens/risk-engine/internal/domain"
)

// fallbackRecommendations is the fixed text used when the generator
// fails, times out, or returns nothing usable.
var fallbackRecommendations = []string{
	"Maintain a balanced diet rich in fruits and vegetables",
	"Aim for at least 150 minutes of moderate exercise per week",
	"Schedule regular check-ups with your healthcare provider",
}

// Assessor runs the full scoring pipeline over a normalized profile:
// the disease calculators (concurrently, they are pure and
// independent), the vitality index, the life expectancy projection, and
// recommendation generation with its fallback. Prediction results are
// memoized per profile+labs since the calculators are deterministic.
type Assessor struct {
	calculators []domain.RiskCalculator
	vitality    *VitalityCalculator
	expectancy  *ExpectancyProjector
	generator   domain.RecommendationGenerator
	heuristics  *domain.Heuristics
	memo        *lru.Cache
	log         *logrus.Logger
}

// NewAssessor creates an assessor with the standard three calculators.
func NewAssessor(h *domain.Heuristics, generator domain.RecommendationGenerator, memoSize int, logger *logrus.Logger) (*Assessor, error) {
	if memoSize <= 0 {
		memoSize = 256
	}
	memo, err := lru.New(memoSize)
	if err != nil {
		return nil, err
	}

	return &Assessor{
		calculators: []domain.RiskCalculator{
			NewCardiacCalculator(h),
			NewMetabolicCalculator(h),
			NewOncologicCalculator(h),
		},
		vitality:   NewVitalityCalculator(h),
		expectancy: NewExpectancyProjector(h),
		generator:  generator,
		heuristics: h,
		memo:       memo,
		log:        logger,
	}, nil
}

// Assess scores the profile and assembles the full assessment. The
// generator failing never fails the assessment: fallback text is
// substituted and the failure logged.
func (a *Assessor) Assess(ctx context.Context, profile *domain.HealthProfile, labs *domain.LabValues) (*domain.Assessment, error) {
	predictions := a.predict(profile, labs)

	vitality := a.vitality.Calculate(profile, predictions)
	expectancy := a.expectancy.Project(profile, predictions)

	lines, generated := a.recommendLines(ctx, profile, predictions)
	recommendations := Prioritize(lines, generated)

	return &domain.Assessment{
		ID:                uuid.New().String(),
		UserID:            profile.UserID,
		Profile:           profile,
		Predictions:       predictions,
		Vitality:          vitality,
		Expectancy:        expectancy,
		Recommendations:   recommendations,
		HeuristicsVersion: a.heuristics.Version,
		GeneratedAt:       time.Now(),
	}, nil
}

// predict runs all calculators concurrently and returns predictions
// keyed by normalized disease name, consulting the memo first. The memo
// holds scoring results only: every run receives its own prediction
// entities so sinks can assign IDs without touching shared state.
func (a *Assessor) predict(profile *domain.HealthProfile, labs *domain.LabValues) map[string]*domain.RiskPrediction {
	key, keyOK := memoKey(profile, labs, a.heuristics.Version)
	if keyOK {
		if cached, ok := a.memo.Get(key); ok {
			if predictions, ok := cached.(map[string]*domain.RiskPrediction); ok {
				return freshPredictions(predictions)
			}
		}
	}

	predictions := make(map[string]*domain.RiskPrediction, len(a.calculators))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, calc := range a.calculators {
		wg.Add(1)
		go func(calc domain.RiskCalculator) {
			defer wg.Done()
			p := calc.Calculate(profile, labs)
			mu.Lock()
			predictions[p.DiseaseKey()] = p
			mu.Unlock()
		}(calc)
	}
	wg.Wait()

	if keyOK {
		a.memo.Add(key, predictions)
	}
	return freshPredictions(predictions)
}

// freshPredictions copies memoized scoring results into per-run
// prediction entities. The scores are deterministic and safe to reuse;
// the ID and timestamp belong to a single assessment run, and the
// repository sink assigns the ID in place before insert.
func freshPredictions(memoized map[string]*domain.RiskPrediction) map[string]*domain.RiskPrediction {
	now := time.Now()
	out := make(map[string]*domain.RiskPrediction, len(memoized))
	for key, p := range memoized {
		c := *p
		c.ID = ""
		c.GeneratedAt = now
		c.KeyFactors = append([]string(nil), p.KeyFactors...)
		c.Advice = append([]string(nil), p.Advice...)
		out[key] = &c
	}
	return out
}

// recommendLines calls the generator and substitutes the static
// fallback on error or when no usable line comes back. The bool result
// reports whether the lines were live-generated.
func (a *Assessor) recommendLines(ctx context.Context, profile *domain.HealthProfile, predictions map[string]*domain.RiskPrediction) ([]string, bool) {
	if a.generator == nil {
		return fallbackRecommendations, false
	}

	lines, err := a.generator.Generate(ctx, profile, predictions)
	if err != nil {
		a.log.WithFields(logrus.Fields{
			"user_id": profile.UserID,
			"error":   err,
		}).Warn("Recommendation generation failed, using fallback")
		return fallbackRecommendations, false
	}
	if len(lines) == 0 {
		a.log.WithField("user_id", profile.UserID).
			Warn("Recommendation generator returned no usable lines, using fallback")
		return fallbackRecommendations, false
	}
	return lines, true
}

// memoKey derives a deterministic cache key from the scoring inputs.
// Profiles are keyed by their serialized form so any field change
// invalidates the entry.
func memoKey(profile *domain.HealthProfile, labs *domain.LabValues, version string) (string, bool) {
	input := struct {
		Profile *domain.HealthProfile `json:"profile"`
		Labs    *domain.LabValues     `json:"labs,omitempty"`
		Version string                `json:"version"`
	}{profile, labs, version}

	data, err := json.Marshal(input)
	if err != nil {
		return "", false
	}
	return string(data), true
}

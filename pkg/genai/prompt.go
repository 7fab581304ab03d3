package genai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/healthlens/risk-engine/internal/domain"
)

// systemPrompt establishes the generator's role and the output format
// the parser expects: a numbered list, one item per line, each prefixed
// with an explicit [High], [Medium], or [Low] priority tag.
const systemPrompt = `You are a preventive health advisor. Given a person's health profile and their computed disease risk levels, produce 3 to 5 short, actionable lifestyle recommendations.

Format requirements:
- Output a numbered list only, one recommendation per line (e.g. "1. ...").
- Prefix every recommendation with a priority tag: [High], [Medium], or [Low].
- Do not add headings, disclaimers, or any other text.`

// BuildPrompt renders the structured user prompt from the profile and
// the current risk predictions. Diseases are listed in sorted key order
// so identical inputs always produce an identical prompt (and cache
// key).
func BuildPrompt(profile *domain.HealthProfile, predictions map[string]*domain.RiskPrediction) string {
	var b strings.Builder

	b.WriteString("Health profile:\n")
	fmt.Fprintf(&b, "- Age: %d\n", profile.Age)
	fmt.Fprintf(&b, "- Sex: %s\n", profile.Sex)
	if bmi, ok := profile.BMI(); ok {
		fmt.Fprintf(&b, "- BMI: %.1f\n", bmi)
	}
	fmt.Fprintf(&b, "- Smoking: %s\n", profile.Smoking)
	fmt.Fprintf(&b, "- Alcohol: %s\n", profile.Alcohol)
	fmt.Fprintf(&b, "- Exercise: %s\n", profile.Exercise)
	fmt.Fprintf(&b, "- Diet: %s\n", profile.Diet)
	if profile.SleepHours > 0 {
		fmt.Fprintf(&b, "- Sleep: %.1f hours per night\n", profile.SleepHours)
	}
	if profile.StressLevel > 0 {
		fmt.Fprintf(&b, "- Stress level: %d of 10\n", profile.StressLevel)
	}

	var family []string
	if profile.FamilyHeart {
		family = append(family, "heart disease")
	}
	if profile.FamilyDiabetes {
		family = append(family, "diabetes")
	}
	if profile.FamilyCancer {
		family = append(family, "cancer")
	}
	if len(family) > 0 {
		fmt.Fprintf(&b, "- Family history: %s\n", strings.Join(family, ", "))
	}
	if len(profile.Conditions) > 0 {
		fmt.Fprintf(&b, "- Current conditions: %s\n", strings.Join(profile.Conditions, ", "))
	}
	if len(profile.Medications) > 0 {
		fmt.Fprintf(&b, "- Medications: %s\n", strings.Join(profile.Medications, ", "))
	}

	if len(predictions) > 0 {
		b.WriteString("\nComputed disease risks:\n")
		keys := make([]string, 0, len(predictions))
		for key := range predictions {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			p := predictions[key]
			if p == nil {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s (score %.2f)\n", p.Disease, p.Category, p.Score)
		}
	}

	return b.String()
}

package service

import (
	"regexp"
	"sort"
	"strings"

	"github.com/healthlens/risk-engine/internal/domain"
)

// priorityTag matches an explicit leading priority label emitted by the
// recommendation generator, e.g. "[High] Quit smoking today".
var priorityTag = regexp.MustCompile(`^\s*\[(High|Medium|Low)\]\s*`)

// Keyword fallback for untagged text, matched case-insensitively.
// Substring matching is order-dependent and can false-positive on
// unrelated text containing a keyword; explicit tags always win.
var (
	highKeywords   = []string{"quit smoking", "consult", "immediate"}
	mediumKeywords = []string{"monitor", "regular"}
)

// Prioritize classifies free-text recommendations into priorities,
// preferring an explicit leading [High]/[Medium]/[Low] tag and falling
// back to keyword matching. Output is ordered High before Medium before
// Low; within a priority the input order is kept. The generated flag
// records whether the text came from the live generator or from static
// fallback.
func Prioritize(lines []string, generated bool) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, len(lines))
	for _, line := range lines {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}

		priority, stripped := tagPriority(text)
		if priority == "" {
			priority = keywordPriority(stripped)
		}

		recs = append(recs, domain.Recommendation{
			Text:      stripped,
			Priority:  priority,
			Generated: generated,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() < recs[j].Priority.Rank()
	})
	return recs
}

// tagPriority extracts an explicit leading priority tag, returning the
// priority and the text with the tag removed. An empty priority means
// no tag was present.
func tagPriority(text string) (domain.Priority, string) {
	match := priorityTag.FindStringSubmatch(text)
	if match == nil {
		return "", text
	}
	return domain.Priority(match[1]), strings.TrimSpace(text[len(match[0]):])
}

func keywordPriority(text string) domain.Priority {
	lower := strings.ToLower(text)
	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			return domain.PriorityHigh
		}
	}
	for _, kw := range mediumKeywords {
		if strings.Contains(lower, kw) {
			return domain.PriorityMedium
		}
	}
	return domain.PriorityLow
}

package genai

import (
	"regexp"
	"strings"
)

// numberedLine matches "1. text", "2) text", and bulleted variants the
// model sometimes produces instead.
var numberedLine = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*])\s+(.+)$`)

// emphasisMarks strips markdown emphasis the model wraps around
// keywords despite the format instructions.
var emphasisMarks = regexp.MustCompile(`[*_]+`)

// ParseRecommendations extracts usable recommendation lines from the
// generator's free-text response: numbered (or bulleted) lines with
// emphasis markup stripped and empties discarded. Leading priority tags
// like "[High]" are preserved for the prioritizer.
func ParseRecommendations(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		match := numberedLine.FindStringSubmatch(raw)
		if match == nil {
			continue
		}

		item := emphasisMarks.ReplaceAllString(match[1], "")
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		lines = append(lines, item)
	}
	return lines
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthlens/risk-engine/internal/domain"
)

func TestPrioritize_ExplicitTagsWin(t *testing.T) {
	recs := Prioritize([]string{
		"[Low] Consult your doctor about vitamin D", // keyword says High, tag says Low
		"[High] Take a daily walk",
	}, true)

	require.Len(t, recs, 2)
	assert.Equal(t, domain.PriorityHigh, recs[0].Priority)
	assert.Equal(t, "Take a daily walk", recs[0].Text)
	assert.Equal(t, domain.PriorityLow, recs[1].Priority)
	assert.Equal(t, "Consult your doctor about vitamin D", recs[1].Text)
}

func TestPrioritize_KeywordFallback(t *testing.T) {
	recs := Prioritize([]string{
		"Eat more vegetables",
		"Monitor your blood pressure weekly",
		"Quit smoking as soon as possible",
	}, true)

	require.Len(t, recs, 3)
	// Sorted High, Medium, Low.
	assert.Equal(t, domain.PriorityHigh, recs[0].Priority)
	assert.Equal(t, "Quit smoking as soon as possible", recs[0].Text)
	assert.Equal(t, domain.PriorityMedium, recs[1].Priority)
	assert.Equal(t, domain.PriorityLow, recs[2].Priority)
}

func TestPrioritize_KeywordsCaseInsensitive(t *testing.T) {
	recs := Prioritize([]string{"QUIT SMOKING today"}, true)

	require.Len(t, recs, 1)
	assert.Equal(t, domain.PriorityHigh, recs[0].Priority)
}

func TestPrioritize_StableWithinPriority(t *testing.T) {
	recs := Prioritize([]string{
		"Consult a cardiologist",
		"Seek immediate care for chest pain",
	}, true)

	require.Len(t, recs, 2)
	assert.Equal(t, "Consult a cardiologist", recs[0].Text)
	assert.Equal(t, "Seek immediate care for chest pain", recs[1].Text)
}

func TestPrioritize_DropsBlankLines(t *testing.T) {
	recs := Prioritize([]string{"", "  ", "Eat more fiber"}, false)

	require.Len(t, recs, 1)
	assert.Equal(t, "Eat more fiber", recs[0].Text)
	assert.False(t, recs[0].Generated)
}

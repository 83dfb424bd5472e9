package recognition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civis/internal/domain"
)

func scored(scores ...float64) []domain.ScoredWord {
	words := make([]domain.ScoredWord, len(scores))
	for i, s := range scores {
		words[i] = domain.ScoredWord{Text: "w", Score: s}
	}
	return words
}

func TestStatsEmptyInput(t *testing.T) {
	stats := Stats(nil)

	assert.Equal(t, domain.QualityUnknown, stats.Quality)
	assert.Zero(t, stats.Average)
	assert.Zero(t, stats.Min)
	assert.Zero(t, stats.Max)
	assert.Empty(t, stats.LowConfidence)
}

func TestStatsArithmetic(t *testing.T) {
	stats := Stats(scored(90, 40, 70))

	assert.Equal(t, 66.67, stats.Average)
	assert.Equal(t, 40.0, stats.Min)
	assert.Equal(t, 90.0, stats.Max)
	assert.Equal(t, domain.QualityGood, stats.Quality)

	require.Len(t, stats.LowConfidence, 1)
	assert.Equal(t, 40.0, stats.LowConfidence[0].Score)
}

func TestStatsQualityBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		scores  []float64
		quality domain.Quality
	}{
		{"exactly 80 is excellent", []float64{80}, domain.QualityExcellent},
		{"just below 80 is good", []float64{79.99}, domain.QualityGood},
		{"exactly 60 is good", []float64{60}, domain.QualityGood},
		{"just below 60 is fair", []float64{59.99}, domain.QualityFair},
		{"exactly 40 is fair", []float64{40}, domain.QualityFair},
		{"below 40 is poor", []float64{39.99}, domain.QualityPoor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.quality, Stats(scored(tt.scores...)).Quality)
		})
	}
}

func TestStatsLowConfidenceThreshold(t *testing.T) {
	stats := Stats(scored(60, 59.99, 95))

	require.Len(t, stats.LowConfidence, 1)
	assert.Equal(t, 59.99, stats.LowConfidence[0].Score)
}

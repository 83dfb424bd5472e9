package recognition

import (
	"math"

	"civis/internal/domain"
)

// lowConfidenceThreshold marks individual words worth a manual look.
const lowConfidenceThreshold = 60

// Stats derives confidence statistics from per-word scores. An empty input
// yields zeroed stats with quality "unknown". Quality thresholds over the
// average: >=80 excellent, >=60 good, >=40 fair, else poor.
func Stats(words []domain.ScoredWord) domain.ConfidenceStats {
	if len(words) == 0 {
		return domain.ConfidenceStats{Quality: domain.QualityUnknown}
	}

	min, max := words[0].Score, words[0].Score
	var sum float64
	var low []domain.ScoredWord
	for _, w := range words {
		sum += w.Score
		if w.Score < min {
			min = w.Score
		}
		if w.Score > max {
			max = w.Score
		}
		if w.Score < lowConfidenceThreshold {
			low = append(low, w)
		}
	}
	avg := round2(sum / float64(len(words)))

	return domain.ConfidenceStats{
		Average:       avg,
		Min:           round2(min),
		Max:           round2(max),
		Quality:       qualityFor(avg),
		LowConfidence: low,
	}
}

func qualityFor(average float64) domain.Quality {
	switch {
	case average >= 80:
		return domain.QualityExcellent
	case average >= 60:
		return domain.QualityGood
	case average >= 40:
		return domain.QualityFair
	default:
		return domain.QualityPoor
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package creditscore

import (
	"time"

	"github.com/zkredit/vault/internal/risk"
)

// Adjustment deltas per transfer risk level. Low risk transfers slowly
// rebuild a damaged score.
const (
	deltaCritical = -15
	deltaHigh     = -8
	deltaMedium   = -3
	deltaLow      = +1
)

// DeltaForLevel returns the score adjustment for a risk level.
// Unknown levels are treated as low.
func DeltaForLevel(level risk.Level) int {
	switch level {
	case risk.LevelCritical:
		return deltaCritical
	case risk.LevelHigh:
		return deltaHigh
	case risk.LevelMedium:
		return deltaMedium
	default:
		return deltaLow
	}
}

// Adjust applies a risk level to a score in place and returns the applied
// delta, which may be smaller than the nominal delta when clamping at the
// band edges. High and critical levels also prepend HighRiskFactor to the
// negative factors, deduplicated and capped at MaxNegativeFactors.
func Adjust(score *CreditScore, level risk.Level) int {
	before := score.Score
	score.Score = clamp(score.Score + DeltaForLevel(level))
	score.LastUpdated = time.Now()

	if level == risk.LevelHigh || level == risk.LevelCritical {
		score.Factors.Negative = prependFactor(score.Factors.Negative, HighRiskFactor)
	}

	return score.Score - before
}

// prependFactor puts factor first, removes prior occurrences, and caps the
// list length.
func prependFactor(factors []string, factor string) []string {
	result := make([]string, 0, len(factors)+1)
	result = append(result, factor)
	for _, f := range factors {
		if f != factor {
			result = append(result, f)
		}
	}
	if len(result) > MaxNegativeFactors {
		result = result[:MaxNegativeFactors]
	}
	return result
}

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

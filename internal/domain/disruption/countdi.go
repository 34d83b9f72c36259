package disruption

import (
	"math"

	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// PureFScore is the matched-to-total forward citation ratio for one year.
// Zero when no citations were received.
func PureFScore(matched, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

// QualityFactor collapses a 4-bucket match-quality distribution into a
// single weighted average.  Bucket weights are fixed (high 1.0, medium 0.7,
// low 0.4, poor 0.1); an empty distribution scores 0.
func QualityFactor(dist map[metrics.MatchQuality]float64) float64 {
	var weighted, total float64
	for q, count := range dist {
		if count <= 0 {
			continue
		}
		weighted += metrics.QualityWeight(q) * count
		total += count
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// ImpactFactor dampens raw citation volume logarithmically:
// min(1, 0.1 * (1 + ln(cpp))) for positive citations-per-patent, else 0.
func ImpactFactor(citationsPerPatent float64) float64 {
	if citationsPerPatent <= 0 {
		return 0
	}
	return math.Min(1.0, 0.1*(1+math.Log(citationsPerPatent)))
}

// MDIRatio is the modified-disruption-index ratio for one (patent, year):
// cc / (cc + tfcc), scaled by the external DI_1 flag.  Defined as 0 when
// both counts are 0.
func MDIRatio(citationCount, totalForwardCount, di1 float64) float64 {
	denom := citationCount + totalForwardCount
	if denom <= 0 {
		return 0
	}
	return citationCount / denom * di1
}

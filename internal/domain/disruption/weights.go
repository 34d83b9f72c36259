// Package disruption holds the scoring core: temporal citation weights, the
// per-patent CDt score, and the firm-year index families derived from them.
package disruption

import (
	"math"
	"time"

	"github.com/turtacn/DisruptMetrics/internal/domain/citation"
)

// DefaultAlpha is the exponential decay constant applied to forward
// citations when none is configured.
const DefaultAlpha = 0.1

const daysPerYear = 365.25

// WeightedCitation pairs a forward-citation edge with its temporal weight.
type WeightedCitation struct {
	Edge   citation.CitationEdge
	Weight float64
}

// DecayWeight returns exp(-alpha * deltaYears).  At zero elapsed time the
// weight is exactly 1; it is non-increasing in elapsed time for alpha > 0.
func DecayWeight(deltaYears, alpha float64) float64 {
	if deltaYears < 0 {
		deltaYears = 0
	}
	return math.Exp(-alpha * deltaYears)
}

// elapsedYears converts a date difference to fractional years.
func elapsedYears(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24 / daysPerYear
}

// WeighForward attaches a decay weight to every forward citation in the
// cohort.  The reference date is the earliest citation date observed in the
// cohort, so the oldest citation always carries weight 1 and later ones
// decay from there.  An empty cohort yields nil.
func WeighForward(forward []citation.CitationEdge, alpha float64) []WeightedCitation {
	if len(forward) == 0 {
		return nil
	}
	earliest := forward[0].Date
	for _, e := range forward[1:] {
		if e.Date.Before(earliest) {
			earliest = e.Date
		}
	}

	weighted := make([]WeightedCitation, 0, len(forward))
	for _, e := range forward {
		weighted = append(weighted, WeightedCitation{
			Edge:   e,
			Weight: DecayWeight(elapsedYears(earliest, e.Date), alpha),
		})
	}
	return weighted
}

package disruption

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DisruptMetrics/internal/domain/citation"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func fwd(citing, cited string, t time.Time) citation.CitationEdge {
	return citation.CitationEdge{CitingID: citing, CitedID: cited, Date: t, Direction: metrics.DirectionForward}
}

func bwd(citing, cited string, t time.Time) citation.CitationEdge {
	return citation.CitationEdge{CitingID: citing, CitedID: cited, Date: t, Direction: metrics.DirectionBackward}
}

func TestDecayWeightAtZeroElapsed(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, DecayWeight(0, DefaultAlpha))
	assert.Equal(t, 1.0, DecayWeight(-3, DefaultAlpha), "negative elapsed time clamps to zero")
}

func TestDecayWeightMonotoneNonIncreasing(t *testing.T) {
	t.Parallel()

	prev := DecayWeight(0, DefaultAlpha)
	for dt := 0.5; dt <= 50; dt += 0.5 {
		w := DecayWeight(dt, DefaultAlpha)
		assert.LessOrEqual(t, w, prev, "Δt=%v", dt)
		assert.Greater(t, w, 0.0)
		prev = w
	}
}

func TestWeighForwardCohortReference(t *testing.T) {
	t.Parallel()

	forward := []citation.CitationEdge{
		fwd("C2", "F1", date(2015, 1, 1)),
		fwd("C1", "F1", date(2010, 1, 1)), // earliest, not first
		fwd("C3", "F2", date(2020, 1, 1)),
	}

	weighted := WeighForward(forward, DefaultAlpha)
	require.Len(t, weighted, 3)

	byCiting := make(map[string]float64)
	for _, wc := range weighted {
		byCiting[wc.Edge.CitingID] = wc.Weight
	}

	assert.Equal(t, 1.0, byCiting["C1"], "earliest citation anchors the cohort")
	assert.Greater(t, byCiting["C1"], byCiting["C2"])
	assert.Greater(t, byCiting["C2"], byCiting["C3"])

	// Five years at α=0.1: exp(-0.5), within leap-day tolerance.
	assert.InDelta(t, 0.6065, byCiting["C2"], 0.002)
}

func TestWeighForwardEmptyCohort(t *testing.T) {
	t.Parallel()

	assert.Nil(t, WeighForward(nil, DefaultAlpha))
}

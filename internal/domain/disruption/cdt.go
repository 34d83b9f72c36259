package disruption

import (
	"math"
	"sort"

	"github.com/turtacn/DisruptMetrics/internal/domain/citation"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// citedIndex maps each citing patent id to the set of ids it cites.  Only
// edges whose citing endpoint is focal are indexed: the backward-citation
// table is keyed by V1, so B(q) for a non-focal citer is empty and its bit
// indicator stays 0.  The focal patent's own backward set is unaffected.
type citedIndex map[string]map[string]struct{}

func buildCitedIndex(network *citation.TripartiteNetwork) citedIndex {
	idx := make(citedIndex)
	for _, e := range network.Edges() {
		if !network.InFocal(e.CitingID) {
			continue
		}
		set, ok := idx[e.CitingID]
		if !ok {
			set = make(map[string]struct{})
			idx[e.CitingID] = set
		}
		set[e.CitedID] = struct{}{}
	}
	return idx
}

func intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for id := range a {
		if _, ok := b[id]; ok {
			return true
		}
	}
	return false
}

// ComputeCDtScores produces one score per focal patent with at least one
// weighted forward citation.  Patents with no forward citations get no
// score at all: they are excluded from aggregates, not scored zero.
//
// For focal patent p with forward citations F(p) of size n:
//
//	CDt(p) = (1/n) * Σ_{c in F(p)} (-2*bit(c) + 1) / w(c)
//
// where bit(c) is 1 when the citing patent's backward set overlaps p's own
// backward set, and w(c) is the citation's temporal weight.  Backward sets
// are resolved against the focal-keyed citation table, so only citers that
// are themselves focal can trigger bit.  Citations whose weight underflowed
// to zero are dropped from the sum and from n.
func ComputeCDtScores(network *citation.TripartiteNetwork, weighted []WeightedCitation) []metrics.PatentScore {
	idx := buildCitedIndex(network)

	byFocal := make(map[string][]WeightedCitation)
	for _, wc := range weighted {
		byFocal[wc.Edge.CitedID] = append(byFocal[wc.Edge.CitedID], wc)
	}

	scores := make([]metrics.PatentScore, 0, len(byFocal))
	for focalID, cites := range byFocal {
		if !network.InFocal(focalID) {
			continue
		}
		backward := idx[focalID]

		var sum float64
		n := 0
		for _, c := range cites {
			if c.Weight <= 0 {
				continue
			}
			contribution := 1.0
			if intersects(backward, idx[c.Edge.CitingID]) {
				contribution = -1.0
			}
			sum += contribution / c.Weight
			n++
		}
		if n == 0 {
			continue
		}
		scores = append(scores, metrics.PatentScore{
			PatentID:  focalID,
			CDt:       sum / float64(n),
			NForward:  n,
			NBackward: len(backward),
		})
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].PatentID < scores[j].PatentID })
	return scores
}

// SummarizeCDt digests the score distribution for one company.  Returns the
// zero summary when no patent has a defined score.
func SummarizeCDt(company string, scores []metrics.PatentScore) metrics.CDtSummary {
	s := metrics.CDtSummary{Company: company, NPatentsWithCD: len(scores)}
	if len(scores) == 0 {
		return s
	}

	values := make([]float64, len(scores))
	for i, sc := range scores {
		values[i] = sc.CDt
	}
	sort.Float64s(values)

	s.Min = values[0]
	s.Max = values[len(values)-1]
	s.Median = median(values)
	s.Mean = mean(values)
	s.Std = stddev(values, s.Mean)
	return s
}

func mean(sorted []float64) float64 {
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(len(sorted))
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func stddev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

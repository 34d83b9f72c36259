package disruption

import (
	"github.com/turtacn/DisruptMetrics/internal/domain/citation"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// CitationSlice is one direction's share of a company's edge set together
// with its derived statistics.
type CitationSlice struct {
	Edges []citation.CitationEdge
	// Endpoints is the distinct far-endpoint set: cited ids for the backward
	// slice (V2), citing ids for the forward slice (V3).
	Endpoints map[string]struct{}
	// CitationsPerPatent is |Edges| / |V1|, zero when V1 is empty.
	CitationsPerPatent float64
	// NetworkDensity is |Edges| / (|V1| * |Endpoints|), zero when either
	// factor is zero.
	NetworkDensity float64
}

// ProcessBackward extracts the backward slice: edges whose citing endpoint
// is focal, with V2 as the distinct cited endpoints.
func ProcessBackward(network *citation.TripartiteNetwork) CitationSlice {
	edges := network.BackwardEdges()
	endpoints := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		endpoints[e.CitedID] = struct{}{}
	}
	return newSlice(edges, endpoints, network.FocalCount())
}

// ProcessForward extracts the forward slice: edges whose cited endpoint is
// focal, with V3 as the distinct citing endpoints.
func ProcessForward(network *citation.TripartiteNetwork) CitationSlice {
	edges := network.ForwardEdges()
	endpoints := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		endpoints[e.CitingID] = struct{}{}
	}
	return newSlice(edges, endpoints, network.FocalCount())
}

func newSlice(edges []citation.CitationEdge, endpoints map[string]struct{}, focalCount int) CitationSlice {
	s := CitationSlice{Edges: edges, Endpoints: endpoints}
	if focalCount > 0 {
		s.CitationsPerPatent = float64(len(edges)) / float64(focalCount)
		if len(endpoints) > 0 {
			s.NetworkDensity = float64(len(edges)) / (float64(focalCount) * float64(len(endpoints)))
		}
	}
	return s
}

// WeightedCitationsPerPatent averages, over the distinct cited focal ids,
// the sum of weights landing on each.  Zero when no citations exist.
func WeightedCitationsPerPatent(weighted []WeightedCitation) float64 {
	if len(weighted) == 0 {
		return 0
	}
	perPatent := make(map[string]float64)
	for _, wc := range weighted {
		perPatent[wc.Edge.CitedID] += wc.Weight
	}
	var total float64
	for _, sum := range perPatent {
		total += sum
	}
	return total / float64(len(perPatent))
}

// NetworkStatsWithDensity completes the network's serializable statistics
// with the forward slice's density figure.
func NetworkStatsWithDensity(network *citation.TripartiteNetwork, forward CitationSlice) metrics.NetworkStats {
	s := network.Stats()
	s.NetworkDensity = forward.NetworkDensity
	return s
}

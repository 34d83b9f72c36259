package citation

import (
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// EdgeStore is a normalized, deduplicated collection of directed citation
// edges for one company.  Deduplication is by the full (citing, cited, date,
// direction) tuple; insertion order of first occurrences is preserved so
// stage outputs are stable across runs.
//
// EdgeStore is not safe for concurrent mutation.  The batch runner gives
// each company its own store, so no locking is needed.
type EdgeStore struct {
	seen  map[edgeKey]struct{}
	edges []CitationEdge
}

// NewEdgeStore returns an empty EdgeStore.
func NewEdgeStore() *EdgeStore {
	return &EdgeStore{seen: make(map[edgeKey]struct{})}
}

// Add inserts the edge unless an identical tuple is already present.
// It reports whether the edge was newly added.
func (s *EdgeStore) Add(e CitationEdge) bool {
	k := e.key()
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}
	s.edges = append(s.edges, e)
	return true
}

// Len returns the number of distinct edges.
func (s *EdgeStore) Len() int {
	return len(s.edges)
}

// Edges returns the stored edges in first-insertion order.  The returned
// slice is shared; callers must not mutate it.
func (s *EdgeStore) Edges() []CitationEdge {
	return s.edges
}

// Backward returns the edges whose citing endpoint belongs to the focal set:
// what the focal patents cite.
func (s *EdgeStore) Backward(focal map[string]struct{}) []CitationEdge {
	var out []CitationEdge
	for _, e := range s.edges {
		if e.Direction != metrics.DirectionBackward {
			continue
		}
		if _, ok := focal[e.CitingID]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Forward returns the edges whose cited endpoint belongs to the focal set:
// what cites the focal patents.
func (s *EdgeStore) Forward(focal map[string]struct{}) []CitationEdge {
	var out []CitationEdge
	for _, e := range s.edges {
		if e.Direction != metrics.DirectionForward {
			continue
		}
		if _, ok := focal[e.CitedID]; ok {
			out = append(out, e)
		}
	}
	return out
}

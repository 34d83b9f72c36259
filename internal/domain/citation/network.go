package citation

import (
	"time"

	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// Ref is a dated reference to another patent, produced by roster parsing.
type Ref struct {
	ID   string
	Date time.Time
}

// BuildStats counts what the builder accepted and rejected.
type BuildStats struct {
	// FocalAdded is the number of roster rows that produced a V1 node.
	FocalAdded int
	// FocalRejected counts rows whose reference date failed the window.
	FocalRejected int
	// EdgesAdded is the number of distinct validated edges.
	EdgesAdded int
	// EdgesDropped counts edges rejected by temporal validation.
	EdgesDropped int
	// EdgesDuplicate counts edges collapsed by deduplication.
	EdgesDuplicate int
}

// NetworkBuilder assembles one company's TripartiteNetwork from parsed roster
// rows.  Rows whose focal reference date fails temporal validation are
// rejected whole; individual citation edges failing validation are dropped
// without aborting the row.
type NetworkBuilder struct {
	company string
	window  Window
	store   *EdgeStore
	v1      map[string]struct{}
	v2      map[string]struct{}
	v3      map[string]struct{}
	dates   map[string]time.Time
	stats   BuildStats
}

// NewNetworkBuilder returns a builder for the given company and window.
func NewNetworkBuilder(company string, w Window) *NetworkBuilder {
	return &NetworkBuilder{
		company: company,
		window:  w,
		store:   NewEdgeStore(),
		v1:      make(map[string]struct{}),
		v2:      make(map[string]struct{}),
		v3:      make(map[string]struct{}),
		dates:   make(map[string]time.Time),
	}
}

// AddFocal processes one roster row: the focal node plus its positionally
// matched backward and forward references.  The focal id joins V1 only when
// its reference date passes temporal validation; otherwise the whole row is
// rejected and counted.  Returns whether the focal was accepted.
func (b *NetworkBuilder) AddFocal(node PatentNode, backward, forward []Ref) bool {
	ref, ok := node.ReferenceDate()
	if !ok || !b.window.Contains(ref) {
		b.stats.FocalRejected++
		return false
	}

	b.v1[node.ID] = struct{}{}
	b.dates[node.ID] = ref
	b.stats.FocalAdded++

	for _, r := range backward {
		b.addEdge(CitationEdge{
			CitingID:  node.ID,
			CitedID:   r.ID,
			Date:      r.Date,
			Direction: metrics.DirectionBackward,
		}, b.v2, r.ID)
	}
	for _, r := range forward {
		b.addEdge(CitationEdge{
			CitingID:  r.ID,
			CitedID:   node.ID,
			Date:      r.Date,
			Direction: metrics.DirectionForward,
		}, b.v3, r.ID)
	}
	return true
}

func (b *NetworkBuilder) addEdge(e CitationEdge, vertexSet map[string]struct{}, endpoint string) {
	if !b.window.Contains(e.Date) {
		b.stats.EdgesDropped++
		return
	}
	if !b.store.Add(e) {
		b.stats.EdgesDuplicate++
		return
	}
	b.stats.EdgesAdded++
	vertexSet[endpoint] = struct{}{}
	if _, ok := b.dates[endpoint]; !ok {
		b.dates[endpoint] = e.Date
	}
}

// Build finalizes the network.  Focal ids are removed from the predecessor
// and successor sets so the three vertex sets are disjoint within the
// company.  The returned network is read-only.
func (b *NetworkBuilder) Build() *TripartiteNetwork {
	for id := range b.v1 {
		delete(b.v2, id)
		delete(b.v3, id)
	}
	return &TripartiteNetwork{
		company: b.company,
		window:  b.window,
		store:   b.store,
		v1:      b.v1,
		v2:      b.v2,
		v3:      b.v3,
		dates:   b.dates,
		stats:   b.stats,
	}
}

// RebuildNetwork reconstructs a network from persisted stage output: the
// focal id set with reference dates plus the validated edge list.  Edges are
// re-validated and deduplicated, so replaying a persisted edge table yields
// the same network the builder originally produced.
func RebuildNetwork(company string, w Window, focal map[string]time.Time, edges []CitationEdge) *TripartiteNetwork {
	b := NewNetworkBuilder(company, w)
	for id, ref := range focal {
		if !w.Contains(ref) {
			b.stats.FocalRejected++
			continue
		}
		b.v1[id] = struct{}{}
		b.dates[id] = ref
		b.stats.FocalAdded++
	}
	for _, e := range edges {
		switch e.Direction {
		case metrics.DirectionBackward:
			b.addEdge(e, b.v2, e.CitedID)
		case metrics.DirectionForward:
			b.addEdge(e, b.v3, e.CitingID)
		}
	}
	return b.Build()
}

// TripartiteNetwork is one company's validated citation network: focal
// patents V1, predecessors V2 (backward-cited), successors V3 (forward
// citing), the deduplicated edge set E, and a date lookup per vertex.
// Built once per company; read-only afterward.
type TripartiteNetwork struct {
	company string
	window  Window
	store   *EdgeStore
	v1      map[string]struct{}
	v2      map[string]struct{}
	v3      map[string]struct{}
	dates   map[string]time.Time
	stats   BuildStats
}

// Company returns the owning company's name.
func (n *TripartiteNetwork) Company() string { return n.company }

// Window returns the validation window the network was built under.
func (n *TripartiteNetwork) Window() Window { return n.window }

// InFocal reports V1 membership.
func (n *TripartiteNetwork) InFocal(id string) bool {
	_, ok := n.v1[id]
	return ok
}

// InPredecessors reports V2 membership.
func (n *TripartiteNetwork) InPredecessors(id string) bool {
	_, ok := n.v2[id]
	return ok
}

// InSuccessors reports V3 membership.
func (n *TripartiteNetwork) InSuccessors(id string) bool {
	_, ok := n.v3[id]
	return ok
}

// FocalCount returns |V1|.
func (n *TripartiteNetwork) FocalCount() int { return len(n.v1) }

// PredecessorCount returns |V2|.
func (n *TripartiteNetwork) PredecessorCount() int { return len(n.v2) }

// SuccessorCount returns |V3|.
func (n *TripartiteNetwork) SuccessorCount() int { return len(n.v3) }

// EdgeCount returns |E|.
func (n *TripartiteNetwork) EdgeCount() int { return n.store.Len() }

// Edges returns the validated edge set in first-insertion order.
func (n *TripartiteNetwork) Edges() []CitationEdge { return n.store.Edges() }

// FocalSet returns the V1 membership map.  Shared; do not mutate.
func (n *TripartiteNetwork) FocalSet() map[string]struct{} { return n.v1 }

// BackwardEdges returns the edges whose citing endpoint is focal.
func (n *TripartiteNetwork) BackwardEdges() []CitationEdge {
	return n.store.Backward(n.v1)
}

// ForwardEdges returns the edges whose cited endpoint is focal.
func (n *TripartiteNetwork) ForwardEdges() []CitationEdge {
	return n.store.Forward(n.v1)
}

// DateOf returns the recorded date for a vertex: the reference date for
// focal patents, the first observed citation date for V2/V3 vertices.
func (n *TripartiteNetwork) DateOf(id string) (time.Time, bool) {
	t, ok := n.dates[id]
	return t, ok
}

// BuildStats returns the builder's acceptance/rejection counters.
func (n *TripartiteNetwork) BuildStats() BuildStats { return n.stats }

// Stats assembles the serializable network statistics.  Ratio fields are
// zero when their denominators are zero.
func (n *TripartiteNetwork) Stats() metrics.NetworkStats {
	s := metrics.NetworkStats{
		Company:            n.company,
		FocalPatents:       len(n.v1),
		CitationEdges:      n.store.Len(),
		BackwardCitations:  len(n.BackwardEdges()),
		ForwardCitations:   len(n.ForwardEdges()),
		PredecessorPatents: len(n.v2),
		CitingPatents:      len(n.v3),
	}
	if s.FocalPatents > 0 {
		s.CitationsPerPatent = float64(s.CitationEdges) / float64(s.FocalPatents)
	}
	return s
}
